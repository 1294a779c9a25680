package model

import (
	"time"

	"github.com/google/uuid"
)

// User owns a set of tasks. The task's AssigneeID column is the single
// authoritative side of the relation; the Tasks slice is only ever
// loaded from it, never written back.
type User struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	Username  string    `gorm:"uniqueIndex;not null"`
	Password  string
	Firstname string
	Lastname  string
	Tasks     []Task `gorm:"foreignKey:AssigneeID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser returns a user with a generated id.
func NewUser(username, password, firstname, lastname string) *User {
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Password:  password,
		Firstname: firstname,
		Lastname:  lastname,
	}
}

// AddTask assigns the task to this user.
func (u *User) AddTask(t *Task) {
	id := u.ID
	t.AssigneeID = &id
}

// RemoveTask releases the task from this user. No-op if the task is
// assigned elsewhere.
func (u *User) RemoveTask(t *Task) {
	if t.AssigneeID == nil || *t.AssigneeID != u.ID {
		return
	}
	t.AssigneeID = nil
}
