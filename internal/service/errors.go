package service

import (
	"errors"
	"time"

	"github.com/tradehub/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrStorageDisabled    = errors.New("avatar storage is disabled")

	ErrUserNotFound         = repository.ErrUserNotFound
	ErrTradeNotFound        = repository.ErrTradeNotFound
	ErrNotificationNotFound = repository.ErrNotificationNotFound
)

// ValidationError is a rejected input. Message is shown to the user as is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// timestamp returns the current time as stored: UTC, millisecond precision
func timestamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Millisecond)
}
