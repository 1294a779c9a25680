package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"timetracker/internal/model"
)

// TaskRepository handles task persistence plus the time-window queries.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("task id %d: %w", id, model.ErrTaskNotFound)
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// FindByDescription is an existence probe; a missing task is (nil, nil),
// not an error.
func (r *TaskRepository) FindByDescription(ctx context.Context, description string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("description = ?", description).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find task by description: %w", err)
	}
}

func (r *TaskRepository) FindAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Delete(task).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// completedInWindow loads the user's completed tasks whose interval lies
// in the half-open window [from, to): started_at >= from, finished_at < to.
// Tasks missing either timestamp never match.
func (r *TaskRepository) completedInWindow(ctx context.Context, username string, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = tasks.assignee_id").
		Where("users.username = ?", username).
		Where("tasks.started_at IS NOT NULL AND tasks.finished_at IS NOT NULL").
		Where("tasks.started_at >= ? AND tasks.finished_at < ?", from.UTC(), to.UTC()).
		Order("tasks.started_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("window query for %q: %w", username, err)
	}
	return tasks, nil
}

// FindUserTasks returns the user's completed tasks in the window,
// longest interval first.
func (r *TaskRepository) FindUserTasks(ctx context.Context, username string, from, to time.Time) ([]model.Task, error) {
	tasks, err := r.completedInWindow(ctx, username, from, to)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Duration() > tasks[j].Duration()
	})
	return tasks, nil
}

// FindUserIntervals returns the same set ordered by start time ascending.
func (r *TaskRepository) FindUserIntervals(ctx context.Context, username string, from, to time.Time) ([]model.Task, error) {
	return r.completedInWindow(ctx, username, from, to)
}

// SumUserTime totals the durations of the tasks FindUserTasks would
// return; zero when nothing matches.
func (r *TaskRepository) SumUserTime(ctx context.Context, username string, from, to time.Time) (time.Duration, error) {
	tasks, err := r.completedInWindow(ctx, username, from, to)
	if err != nil {
		return 0, err
	}
	var sum time.Duration
	for _, task := range tasks {
		sum += task.Duration()
	}
	return sum, nil
}

// DeleteUserTasks removes every task owned by the user, finished or not.
func (r *TaskRepository) DeleteUserTasks(ctx context.Context, username string) error {
	err := r.db.WithContext(ctx).
		Where("assignee_id IN (?)", r.db.Model(&model.User{}).Select("id").Where("username = ?", username)).
		Delete(&model.Task{}).Error
	if err != nil {
		return fmt.Errorf("delete tasks of %q: %w", username, err)
	}
	return nil
}
