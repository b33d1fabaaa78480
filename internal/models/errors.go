package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("models: insufficient balance")
	ErrUserNotFound        = errors.New("models: user not found")
	ErrListingNotFound     = errors.New("models: listing not found")
	ErrTaskNotFound        = errors.New("models: recharge task not found")
	ErrTaskNotPending      = errors.New("models: recharge task is not pending")
	ErrContactViewNotFound = errors.New("models: contact view not found")
	ErrPermissionDenied    = errors.New("models: permission denied")
)

// ValidationError reports which input field failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
