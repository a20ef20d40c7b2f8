// Package fault defines the machine-checkable error kinds the booking
// core surfaces to callers. Handlers map kinds to HTTP statuses; only
// the short message ever reaches the client.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidTransition
	KindUnauthorized
	KindUnavailable
	KindValidation
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error carries a kind, a short client-safe message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Message returns the client-safe message.
func (e *Error) Message() string { return e.Msg }

// NotFound builds a not-found error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

// InvalidTransition builds a state-machine violation error.
func InvalidTransition(msg string) *Error { return &Error{Kind: KindInvalidTransition, Msg: msg} }

// Unauthorized builds an access-denied error.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Unavailable wraps a dependency failure. The cause is kept for logs
// but never serialized to the client.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// Validation builds a malformed-input error.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// KindOf extracts the kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// MessageOf returns the client-safe message of err, or a generic one.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Msg
	}
	return "internal error"
}
