package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure.
type Kind int

// Failure kinds surfaced to the transport boundary.
const (
	// KindUnauthorized means no actor identity was supplied.
	KindUnauthorized Kind = iota + 1
	// KindForbidden means the actor lacks the required role, membership or ownership.
	KindForbidden
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindInvalid means the request violates a business or lifecycle rule.
	KindInvalid
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Sentinel errors usable with errors.Is to test the kind of a workflow error.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalid      = &Error{Kind: KindInvalid, Message: "invalid"}
)

// Error is a typed workflow failure.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Is matches any workflow error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return e.Kind == other.Kind
}

// Unauthorizedf builds a KindUnauthorized error.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a KindForbidden error.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a KindNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalidf builds a KindInvalid error.
func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err when it wraps a workflow error.
func KindOf(err error) (Kind, bool) {
	var wfErr *Error
	if errors.As(err, &wfErr) && wfErr != nil {
		return wfErr.Kind, true
	}
	return 0, false
}
