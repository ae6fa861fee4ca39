// Package toolerr provides a structured error type for tool invocation
// failures that preserves message and causal context across retries.
package toolerr

import (
	"errors"
	"fmt"
)

// Error represents a structured tool failure. Errors may nest via Cause to
// retain diagnostics across retries while still implementing the standard
// error interface and supporting errors.Is/As through Unwrap.
type Error struct {
	// Message is the human-readable summary of the failure.
	Message string
	// Cause links to the underlying tool error, if any.
	Cause *Error
}

// New constructs an Error with the given message.
func New(message string) *Error {
	if message == "" {
		message = "tool error"
	}
	return &Error{Message: message}
}

// NewWithCause constructs an Error wrapping an underlying error.
func NewWithCause(message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Message: message, Cause: FromError(cause)}
}

// FromError converts an arbitrary error into an Error chain.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Errorf formats according to a format specifier and returns the result as
// an Error.
func Errorf(format string, args ...any) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying error to support errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
