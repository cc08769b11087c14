// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Parse errors (100-199): Field count, timestamp, price and volume parse failures
//   - Analysis errors (200-299): Spread and source-comparison anomalies
//   - Configuration/session errors (300-399): Config validation and source routing errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodePriceParse, "invalid price value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodePriceParse, "field %s is not a valid price", field)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeTimestampFormat, "failed to parse timestamp", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeFieldCountMismatch) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientSourcesError signals that a timestamp had fewer sources than the
// comparator needs. It is a no-op signal rather than a failure: feeds have gaps.
type InsufficientSourcesError struct {
	Required int // Minimum sources required for a comparison
	Actual   int // Sources present at the timestamp
	Message  string
}

// NewInsufficientSourcesError creates a new InsufficientSourcesError.
func NewInsufficientSourcesError(required, actual int, message string) *InsufficientSourcesError {
	return &InsufficientSourcesError{
		Required: required,
		Actual:   actual,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *InsufficientSourcesError) Error() string {
	return e.Message
}

// IsInsufficientSourcesError checks if an error is an InsufficientSourcesError.
// It uses errors.As to check the error chain.
func IsInsufficientSourcesError(err error) bool {
	var insufficientErr *InsufficientSourcesError

	return errors.As(err, &insufficientErr)
}
