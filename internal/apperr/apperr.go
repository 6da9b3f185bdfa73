// Package apperr classifies the error outcomes the core services return.
//
// Every failure is local, synchronous and non-retryable; the transport layer
// translates a Kind into a status code without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind int

const (
	// Internal is the default for unclassified failures.
	Internal Kind = iota
	// NotFound means the referenced group/bill/member/user does not exist
	// (or is tombstoned).
	NotFound
	// InvalidArgument means the request itself is malformed: bad amount,
	// duplicate participant, blank required field, unknown split policy.
	InvalidArgument
	// Forbidden means the caller lacks the required membership or role.
	Forbidden
	// Conflict means the resource already exists, e.g. an already-member.
	Conflict
	// InvariantViolation means the mutation would break a ledger rule:
	// share-sum mismatch, sole-admin removal, no valid members at creation.
	InvariantViolation
	// Unauthenticated means no trusted caller identity was supplied.
	Unauthenticated
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	case InvariantViolation:
		return "invariant_violation"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a classified error. It wraps an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error with the given message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf returns a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it reachable via errors.Is/As.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
