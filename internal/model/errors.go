package model

import "errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")

	ErrTaskExists = errors.New("task already exists")
	ErrUserExists = errors.New("user already exists")

	ErrTaskAlreadyStarted = errors.New("task already started")
	ErrTaskNotRunning     = errors.New("task already finished or not started")
)
