package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"timetracker/internal/clock"
)

// Task is a unit of trackable work with an optional timer interval.
// The (StartedAt, FinishedAt) pair moves through exactly three states:
// created (both nil), running (started only), completed (both set).
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	Description string `gorm:"uniqueIndex;not null"`
	StartedAt   *time.Time
	FinishedAt  *time.Time
	AssigneeID  *uuid.UUID `gorm:"type:text;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask returns an unstarted task with the given description.
func NewTask(description string) *Task {
	return &Task{Description: description}
}

// NewFinishedTask builds a task with its timestamps already populated,
// bypassing the state machine. Used by fixtures and imports.
func NewFinishedTask(description string, startedAt, finishedAt *time.Time) *Task {
	return &Task{Description: description, StartedAt: normalize(startedAt), FinishedAt: normalize(finishedAt)}
}

// Start records the current instant as the timer start. Valid only
// when neither timestamp is set.
func (t *Task) Start(clk clock.Clock) error {
	if t.StartedAt != nil || t.FinishedAt != nil {
		return fmt.Errorf("task %q: %w", t.Description, ErrTaskAlreadyStarted)
	}
	now := clk.Now().UTC()
	t.StartedAt = &now
	return nil
}

// Finish records the current instant as the timer stop. Valid only
// while the task is running.
func (t *Task) Finish(clk clock.Clock) error {
	if t.StartedAt == nil || t.FinishedAt != nil {
		return fmt.Errorf("task %q: %w", t.Description, ErrTaskNotRunning)
	}
	now := clk.Now().UTC()
	t.FinishedAt = &now
	return nil
}

// IsStarted reports whether the timer has ever been started.
func (t *Task) IsStarted() bool {
	return t.StartedAt != nil
}

// IsFinished is a pure data predicate on FinishedAt; a task constructed
// pre-finished counts even if it never went through Start.
func (t *Task) IsFinished() bool {
	return t.FinishedAt != nil
}

// Duration returns FinishedAt - StartedAt, or zero while the interval
// is incomplete.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// Timestamps are persisted in UTC so that sqlite's textual datetime
// comparison matches chronological order.
func normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
