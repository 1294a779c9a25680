package service

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// UserService wraps user management. Deleting a user cascades to their
// tasks inside the same transaction.
type UserService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	taskRepo *repository.TaskRepository
}

func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, taskRepo *repository.TaskRepository) *UserService {
	return &UserService{db: db, userRepo: userRepo, taskRepo: taskRepo}
}

// CreateUser persists a new user. The username must be unused.
func (s *UserService) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		exists, err := userRepo.ExistsByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %q: %w", user.Username, model.ErrUserExists)
		}
		return userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("saved user %q with id %s", user.Username, user.ID)
	return user, nil
}

// UpdateUser replaces the profile of an existing user, keeping its id.
func (s *UserService) UpdateUser(ctx context.Context, username string, update *model.User) (*model.User, error) {
	var result *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		old, err := userRepo.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		update.ID = old.ID
		update.CreatedAt = old.CreatedAt
		if err := userRepo.Save(ctx, update); err != nil {
			return err
		}
		result = update
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("user %q info updated", result.Username)
	return result, nil
}

// DeleteUser removes the user and every task they own.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := s.taskRepo.WithTx(tx).DeleteUserTasks(ctx, username); err != nil {
			return err
		}
		return userRepo.Delete(ctx, user)
	})
	if err != nil {
		return err
	}
	log.Printf("user %q deleted", username)
	return nil
}
