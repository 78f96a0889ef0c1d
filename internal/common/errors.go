// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrMissingConfig    = errors.New("missing configuration")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidTimeframe = errors.New("timeframe must be 'week', 'year' or a number of days")

	// Donation platform errors.
	ErrFetchFailed = errors.New("donation platform request failed")

	// Snapshot errors.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// CRM errors.
	ErrCRMRequest = errors.New("crm request failed")
	ErrNotFound   = errors.New("not found")

	// Sync errors.
	ErrNoPledges  = errors.New("no pledges found")
	ErrNoProjects = errors.New("no projects found")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
