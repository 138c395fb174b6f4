package errors

import (
	"errors"
	"fmt"
)

// Domain error types

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a missing or invalid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Remote collaborator errors

var (
	// ErrNetwork indicates a request to a remote collaborator did not complete
	ErrNetwork = errors.New("network failure")

	// ErrRemote indicates the store or HTTP service answered with an error status or payload
	ErrRemote = errors.New("remote error")

	// ErrAnalysisInProgress indicates an analysis trigger is already running
	ErrAnalysisInProgress = errors.New("analysis already in progress")
)

// RemoteError carries the status and message a remote collaborator returned.
// errors.Is(err, ErrRemote) holds for every RemoteError.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: remote error: status=%d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: remote error: %s", e.Op, e.Message)
}

// Is reports ErrRemote as the sentinel of every RemoteError
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a new remote error
func NewRemoteError(op string, status int, message string) *RemoteError {
	return &RemoteError{Op: op, Status: status, Message: message}
}

// NetworkError wraps a transport failure so that errors.Is(err, ErrNetwork) holds
func NetworkError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap ties validation errors to ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
