package dam

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so transport layers can map it to a
// status code without string matching.
type Kind int

const (
	// KindValidation marks malformed or rejected input.
	KindValidation Kind = iota
	// KindNotFound marks a missing folder or file.
	KindNotFound
	// KindConflict marks name collisions, cycle attempts, and stale writes.
	KindConflict
	// KindAccessDenied marks callers without the required role.
	KindAccessDenied
	// KindExternal marks asset host failures.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAccessDenied:
		return "access_denied"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Error is the error type returned by catalog operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrValidation builds a validation error from a format string.
func ErrValidation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound builds a not-found error from a format string.
func ErrNotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ErrConflict builds a conflict error from a format string.
func ErrConflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied builds an access-denied error from a format string.
func ErrAccessDenied(format string, args ...any) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// ErrExternal wraps an asset host failure with a caller-safe message.
func ErrExternal(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

// KindOf returns the Kind of err if it is an engine Error, or ok=false.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
