package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so the transport layer can map
// them to stable status codes.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindInvalidOperation ErrorKind = "invalid_operation"
	KindForbidden        ErrorKind = "forbidden"
	KindInternal         ErrorKind = "internal"
)

// Error is a classified engine error. Store-layer causes are preserved
// for logging via Unwrap.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a classified error without an underlying cause.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapInternal classifies a store or infrastructure failure as internal
// while keeping the original error reachable through Unwrap.
func WrapInternal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Cause: cause}
}

// KindOf extracts the classification of err, defaulting to internal for
// unclassified failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
