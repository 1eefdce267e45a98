// Package apperrors defines the error taxonomy shared by the session
// engine: conflicts, missing records, marker/session disagreement and
// local storage failures.
package apperrors

import (
	"errors"
	"fmt"
)

// Type categorizes an error for handling policy decisions.
type Type string

const (
	// TypeConflict means another session is already active; recoverable by
	// an explicit user choice, never by silent switching.
	TypeConflict Type = "conflict"
	// TypeNotFound means a referenced session/job/client is missing.
	TypeNotFound Type = "not_found"
	// TypeInconsistentState means the active-timer marker and the session
	// table disagree. Repaired silently only during startup recovery.
	TypeInconsistentState Type = "inconsistent_state"
	// TypeTransientIO means a local storage operation failed. Surfaced,
	// never retried automatically.
	TypeTransientIO Type = "transient_io"
	// TypeValidation means the caller passed invalid input.
	TypeValidation Type = "validation"
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Type: TypeConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Type: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// InconsistentState creates an inconsistent-state error.
func InconsistentState(format string, args ...any) *Error {
	return &Error{Type: TypeInconsistentState, Message: fmt.Sprintf(format, args...)}
}

// TransientIO wraps a storage failure.
func TransientIO(message string, cause error) *Error {
	return &Error{Type: TypeTransientIO, Message: message, Cause: cause}
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

// IsType reports whether err (or anything it wraps) is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return IsType(err, TypeConflict) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsType(err, TypeNotFound) }

// IsInconsistentState reports whether err is an inconsistent-state error.
func IsInconsistentState(err error) bool { return IsType(err, TypeInconsistentState) }
