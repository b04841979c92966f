package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for preference operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the user has no preference record.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeStorageUnavailable indicates the database could not serve the request.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// ServiceError represents a structured error returned by the service layer.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *ServiceError) WithContext(key string, value any) *ServiceError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *ServiceError) GetCode() ErrorCode {
	return e.Code
}

// NotFound creates a not found error for the given user.
func NotFound(userID string) *ServiceError {
	err := &ServiceError{Code: ErrCodeNotFound, Message: "Preferences not found for this user"}
	return err.WithContext("user_id", userID)
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg}
}

// StorageUnavailable creates a storage error wrapping the driver failure.
func StorageUnavailable(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeStorageUnavailable, Message: msg, Cause: cause}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *ServiceError {
	return &ServiceError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or anything it wraps, carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ServiceError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return defaultCode
}
