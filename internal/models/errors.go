package models

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning rejects a start request while another job is active.
	ErrAlreadyRunning = errors.New("processing already running")

	// ErrCancelled is returned internally when a job observes its cancellation token.
	// It is never delivered as a failure notification.
	ErrCancelled = errors.New("processing cancelled")
)

// ValidationError represents a rejected start request or input field
type ValidationError struct {
	Parameter string
	Value     interface{}
	Message   string
}

// NewValidationError creates a new validation error
func NewValidationError(parameter string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		ve.Parameter, ve.Value, ve.Message)
}

// ModelInvocationError wraps any failure of the external segmentation model.
type ModelInvocationError struct {
	Variant Variant
	Err     error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("segmentation with model %q failed: %v", e.Variant, e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed mask or overlay write.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
