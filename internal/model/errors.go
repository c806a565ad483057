package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("work item not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoSession          = errors.New("not logged in")
)

// ErrMissingCredentials is returned when the username or password is empty.
// It matches ErrInvalidCredentials under errors.Is.
var ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
