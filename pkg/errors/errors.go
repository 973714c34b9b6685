package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an upstream service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeTransient indicates the upstream throttled us and the
	// operation may succeed later
	ErrorTypeTransient ErrorType = "TRANSIENT"

	// ErrorTypePermanent indicates the operation failed for good for this item
	ErrorTypePermanent ErrorType = "PERMANENT"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// RetryAfter carries a server-supplied delay hint, zero when absent.
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// RetryDelay exposes the server-supplied delay hint to pkg/retry.
func (e *AppError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewTransientError creates a throttling error, optionally with a delay hint
func NewTransientError(message string, err error, retryAfter time.Duration) *AppError {
	return &AppError{
		Type:       ErrorTypeTransient,
		Message:    message,
		Err:        err,
		RetryAfter: retryAfter,
	}
}

// NewPermanentError creates an error that should not be retried
func NewPermanentError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypePermanent,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the type of the outermost AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsTransient reports whether err is a throttling failure
func IsTransient(err error) bool {
	return TypeOf(err) == ErrorTypeTransient
}

// IsPermanent reports whether err is a non-retryable failure
func IsPermanent(err error) bool {
	return TypeOf(err) == ErrorTypePermanent
}

// IsNotFound reports whether err means the requested record is absent
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}
