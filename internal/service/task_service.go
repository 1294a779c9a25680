package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"timetracker/internal/clock"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// Query windows with an omitted bound fall back to these sentinels.
var (
	LowerTimeBoundary = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	UpperTimeBoundary = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// TaskService wraps the task lifecycle and window queries. Mutating
// operations run inside a single transaction so the check-then-act
// sequences cannot interleave.
type TaskService struct {
	db        *gorm.DB
	taskRepo  *repository.TaskRepository
	userRepo  *repository.UserRepository
	clock     clock.Clock
	autoStart bool
}

// NewTaskService builds the service. autoStart controls whether
// CreateTask starts the timer immediately.
func NewTaskService(db *gorm.DB, taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, clk clock.Clock, autoStart bool) *TaskService {
	return &TaskService{db: db, taskRepo: taskRepo, userRepo: userRepo, clock: clk, autoStart: autoStart}
}

// CreateTask creates a task for the user and, when configured, starts
// its timer. The description must not be in use by any task.
func (s *TaskService) CreateTask(ctx context.Context, username, description string) (*model.Task, error) {
	var created *model.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		existing, err := taskRepo.FindByDescription(ctx, description)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("task %q: %w", description, model.ErrTaskExists)
		}
		user, err := s.userRepo.WithTx(tx).FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		task := model.NewTask(description)
		user.AddTask(task)
		if s.autoStart {
			if err := task.Start(s.clock); err != nil {
				return err
			}
		}
		if err := taskRepo.Create(ctx, task); err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("user %q created task %q with id %d", username, created.Description, created.ID)
	return created, nil
}

// StartTime starts the timer of an existing task.
func (s *TaskService) StartTime(ctx context.Context, taskID uint) error {
	return s.transition(ctx, taskID, (*model.Task).Start, "started")
}

// StopTime finishes the timer of an existing task.
func (s *TaskService) StopTime(ctx context.Context, taskID uint) error {
	return s.transition(ctx, taskID, (*model.Task).Finish, "finished")
}

// FinishTask is the create-flow counterpart of StopTime.
func (s *TaskService) FinishTask(ctx context.Context, taskID uint) error {
	return s.StopTime(ctx, taskID)
}

func (s *TaskService) transition(ctx context.Context, taskID uint, step func(*model.Task, clock.Clock) error, verb string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := step(task, s.clock); err != nil {
			return err
		}
		return taskRepo.Save(ctx, task)
	})
	if err != nil {
		return err
	}
	log.Printf("task %d %s", taskID, verb)
	return nil
}

// DeleteTask removes a single task by id.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		return taskRepo.Delete(ctx, task)
	})
}

// FindUserTasks lists the user's completed tasks in the window, longest
// first. from and to are calendar dates, expanded in the clock's zone.
func (s *TaskService) FindUserTasks(ctx context.Context, username string, from, to *time.Time) ([]model.Task, error) {
	return s.taskRepo.FindUserTasks(ctx, username, s.startBound(from), s.endBound(to))
}

// FindUserIntervals lists the same set ordered by start time.
func (s *TaskService) FindUserIntervals(ctx context.Context, username string, from, to *time.Time) ([]model.Task, error) {
	return s.taskRepo.FindUserIntervals(ctx, username, s.startBound(from), s.endBound(to))
}

// FindUserWorkTime totals the user's tracked time over the window.
func (s *TaskService) FindUserWorkTime(ctx context.Context, username string, from, to *time.Time) (time.Duration, error) {
	return s.taskRepo.SumUserTime(ctx, username, s.startBound(from), s.endBound(to))
}

// ClearUserTasks deletes all of the user's tasks. An unknown username
// is a silent no-op.
func (s *TaskService) ClearUserTasks(ctx context.Context, username string) error {
	if err := s.taskRepo.DeleteUserTasks(ctx, username); err != nil {
		return err
	}
	log.Printf("user %q deleted all their tasks", username)
	return nil
}

// FinishAllTasks finishes every running task. Tasks that never started
// cannot be finished and are skipped; the batch never fails on a single
// invalid transition.
func (s *TaskService) FinishAllTasks(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		tasks, err := taskRepo.FindAll(ctx)
		if err != nil {
			return err
		}
		for i := range tasks {
			task := &tasks[i]
			if task.IsFinished() || !task.IsStarted() {
				continue
			}
			if err := task.Finish(s.clock); err != nil {
				log.Printf("skip task %d: %v", task.ID, err)
				continue
			}
			if err := taskRepo.Save(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("all running tasks finished")
	return nil
}

// DeleteOldTasks purges finished tasks whose finish time plus ttl lies
// strictly before now. Unfinished tasks are never candidates.
func (s *TaskService) DeleteOldTasks(ctx context.Context, ttl time.Duration) error {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		tasks, err := taskRepo.FindAll(ctx)
		if err != nil {
			return err
		}
		for i := range tasks {
			task := &tasks[i]
			if !task.IsFinished() || !task.FinishedAt.Add(ttl).Before(now) {
				continue
			}
			if err := taskRepo.Delete(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("deleted all tasks finished more than %s ago", ttl)
	return nil
}

func (s *TaskService) startBound(date *time.Time) time.Time {
	if date == nil {
		return LowerTimeBoundary
	}
	return s.startOfDay(*date)
}

func (s *TaskService) endBound(date *time.Time) time.Time {
	if date == nil {
		return UpperTimeBoundary
	}
	// Start of the next day keeps the window half-open on the right.
	return s.startOfDay(*date).AddDate(0, 0, 1)
}

func (s *TaskService) startOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.clock.Location())
}
