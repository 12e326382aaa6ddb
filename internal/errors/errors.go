package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// User input: reported back to the requester as a reply
	ErrCodeMissingArgument   ErrorCode = "MISSING_ARGUMENT"
	ErrCodeClientNotAssigned ErrorCode = "CLIENT_NOT_ASSIGNED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLong    ErrorCode = "REQUEST_TOO_LONG"

	// Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Configuration store integrity
	ErrCodeConfigIntegrity ErrorCode = "CONFIG_INTEGRITY"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodePlatform ErrorCode = "PLATFORM_ERROR"
)

// AppError is a structured error carrying a code that callers can branch on
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// UserFacing reports whether the message is meant to be shown to the requester.
func (e *AppError) UserFacing() bool {
	switch e.Code {
	case ErrCodeMissingArgument, ErrCodeClientNotAssigned, ErrCodeRateLimitExceeded, ErrCodeRequestTooLong:
		return true
	}
	return false
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func MissingArgument() *AppError {
	return New(ErrCodeMissingArgument, "Please provide a request name.")
}

func RequestTooLong(max int) *AppError {
	return New(ErrCodeRequestTooLong, fmt.Sprintf("Your request is too long. Please keep it under %d characters.", max))
}

func ClientNotAssigned() *AppError {
	return New(ErrCodeClientNotAssigned, "You are not assigned to any client plan.")
}

func RateLimitExceeded(retryIn string) *AppError {
	return New(ErrCodeRateLimitExceeded, fmt.Sprintf("You're sending requests too quickly. Try again in %s.", retryIn))
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// ConfigIntegrity reports a missing, unreadable or malformed client configuration.
func ConfigIntegrity(message string, cause error) *AppError {
	return Wrap(ErrCodeConfigIntegrity, message, cause)
}

// InvalidClientField reports a client record field that failed validation.
func InvalidClientField(roleID, field, reason string) *AppError {
	return New(ErrCodeConfigIntegrity, fmt.Sprintf("client %s: invalid %s: %s", roleID, field, reason)).
		WithDetails(map[string]string{"roleId": roleID, "field": field})
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func Platform(operation string, cause error) *AppError {
	return Wrap(ErrCodePlatform, fmt.Sprintf("Chat platform error: %s", operation), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
