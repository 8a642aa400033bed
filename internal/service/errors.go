package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a request fails validation
	// (empty question, unsupported corpus reference).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a session or corpus reference is unknown.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	// Generation failures are never surfaced with it; they degrade to a
	// fallback answer inside the pipeline.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
