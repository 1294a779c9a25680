package api

import (
	"fmt"
	"time"

	"timetracker/internal/model"
)

type UserDto struct {
	Username  string `json:"username" validate:"required,max=255"`
	Password  string `json:"password" validate:"required"`
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
}

type CreateTaskDto struct {
	Description string `json:"description" validate:"required"`
}

type TaskCreatedDto struct {
	ID uint `json:"id"`
}

type TaskDto struct {
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

type TimeIntervalDto struct {
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	TaskDescription string    `json:"taskDescription"`
}

type TimeSumDto struct {
	Time string `json:"time"`
}

type ValidationErrorDto struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

func newTaskDto(task model.Task) TaskDto {
	return TaskDto{Description: task.Description, Duration: formatDuration(task.Duration())}
}

func newTimeIntervalDto(task model.Task) TimeIntervalDto {
	return TimeIntervalDto{
		StartedAt:       *task.StartedAt,
		FinishedAt:      *task.FinishedAt,
		TaskDescription: task.Description,
	}
}

// formatDuration renders whole hours and minutes as HH:MM.
func formatDuration(d time.Duration) string {
	m := int64(d.Seconds()) / 60
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
