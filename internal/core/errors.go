// Package core holds the domain model shared by the registry, ledger and
// aggregation components, together with the closed error taxonomy every
// component reports through.
package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error. The set is closed: handlers map
// each kind to exactly one response class and infrastructure failures
// are always distinguishable from domain-validation failures.
type ErrorKind int

const (
	// KindValidation means caller-supplied data violates a domain rule.
	KindValidation ErrorKind = iota + 1
	// KindNotFound means the entity does not exist or is not visible to
	// the caller. Deliberately indistinguishable from "exists but owned
	// by someone else" to avoid existence leakage.
	KindNotFound
	// KindConflict means the operation would violate a uniqueness or
	// referential-integrity invariant.
	KindConflict
	// KindPermission means the entity exists and is visible but the
	// caller may not mutate it (e.g. another user's category).
	KindPermission
	// KindStore means the record store call failed for reasons unrelated
	// to domain validation. Retryable by the caller.
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermission:
		return "permission"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is the single error type crossing component boundaries.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NewValidationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NewNotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func NewNotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func NewConflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func NewConflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func NewPermission(msg string) error {
	return &Error{Kind: KindPermission, Msg: msg}
}

// NewStore wraps a failed record-store call. The raw store error stays
// reachable through Unwrap for logging but is never shown to callers.
func NewStore(op string, err error) error {
	return &Error{Kind: KindStore, Msg: op, Err: err}
}

// KindOf returns the kind of err, or 0 when err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsPermission(err error) bool { return KindOf(err) == KindPermission }
func IsStore(err error) bool      { return KindOf(err) == KindStore }
