package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a prompt cannot move to the requested state
	ErrInvalidTransition = errors.New("invalid prompt state transition")

	// ErrNotReady is returned by a chrono that should be retried on the next tick
	// without being reported as a failure
	ErrNotReady = errors.New("not ready")
)

// UserError is an input error that is reported back to the invoking user
// instead of being logged as a fault
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a formatted UserError
func NewUserError(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// AsUserError extracts a UserError from an error chain
func AsUserError(err error) (*UserError, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr, true
	}
	return nil, false
}
