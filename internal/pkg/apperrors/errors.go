package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error leaving the service layer wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("resource not found")
	ErrForbidden     = errors.New("permission denied")
	ErrInvalidState  = errors.New("invalid state")
	ErrLimitExceeded = errors.New("purchase limit exceeded")
	ErrInternal      = errors.New("internal error")
)

// Authentication errors
var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// Conflict errors
var (
	ErrConflict           = errors.New("conflict")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrCodeAlreadyExists  = errors.New("course code already exists")
)

// Stable machine codes
const (
	CodeValidation    = "VAL_001"
	CodeNotFound      = "RES_001"
	CodeConflict      = "RES_002"
	CodeInvalidState  = "PUR_001"
	CodeLimitExceeded = "PUR_002"
	CodeForbidden     = "AUTH_009"
	CodeInternal      = "SRV_001"
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
	// Cause is the underlying failure for internal errors, logged but never exposed
	Cause error
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode overrides the error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// NewValidationError creates a validation error with a message
func NewValidationError(message string) *CustomError {
	return &CustomError{Err: ErrValidation, Message: message, Code: CodeValidation}
}

// NewNotFoundError creates a not-found error with a message
func NewNotFoundError(message string) *CustomError {
	return &CustomError{Err: ErrNotFound, Message: message, Code: CodeNotFound}
}

// NewForbiddenError creates a permission error with a message
func NewForbiddenError(message string) *CustomError {
	return &CustomError{Err: ErrForbidden, Message: message, Code: CodeForbidden}
}

// NewConflictError creates a conflict error wrapping a more specific sentinel
func NewConflictError(sentinel error, message string) *CustomError {
	return &CustomError{Err: fmt.Errorf("%w: %w", ErrConflict, sentinel), Message: message, Code: CodeConflict}
}

// NewInvalidStateError reports a transition attempted from a non-pending status
func NewInvalidStateError(message, currentStatus string) *CustomError {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
		Code:    CodeInvalidState,
		Details: map[string]interface{}{"currentStatus": currentStatus},
	}
}

// NewLimitExceededError reports a request that does not fit the remaining purchase limit
func NewLimitExceededError(available, requested decimal.Decimal) *CustomError {
	return &CustomError{
		Err: ErrLimitExceeded,
		Message: fmt.Sprintf("Purchase limit exceeded. Available: %s, Requested: %s",
			available.StringFixed(2), requested.StringFixed(2)),
		Code: CodeLimitExceeded,
		Details: map[string]interface{}{
			"available": available,
			"requested": requested,
		},
	}
}

// NewInternalError hides a storage or infrastructure failure behind ErrInternal
func NewInternalError(cause error, message string) *CustomError {
	return &CustomError{Err: ErrInternal, Message: message, Code: CodeInternal, Cause: cause}
}

// AsCustomError extracts the CustomError from an error chain
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Internalize passes typed application errors through and wraps anything else as internal.
// Services call it on repository errors so raw driver errors never reach callers.
func Internalize(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsCustomError(err); ok {
		return err
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrInvalidState, ErrLimitExceeded, ErrInternal} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return NewInternalError(err, message)
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
