package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type for API operations.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates a provider needs the user to sign in.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServiceUnavailable indicates a provider is not configured or not reachable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

// APIError represents a structured error for the HTTP surface.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the code to a response status.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeContextCanceled:
		return 499
	}
	return http.StatusInternalServerError
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *APIError {
	return &APIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// Internal wraps an unexpected failure.
func Internal(cause error) *APIError {
	return &APIError{Code: ErrCodeInternal, Message: "internal error", Cause: cause}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *APIError {
	return &APIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}
