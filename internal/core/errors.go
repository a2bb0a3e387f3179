package core

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so the transport layer can choose a status
// code without string-matching messages.
type Kind int

const (
	// KindInternal is the zero value: an unexpected persistence or system failure.
	KindInternal Kind = iota
	// KindInvalid marks a missing or malformed required field.
	KindInvalid
	// KindConflict marks a uniqueness or referential-integrity violation.
	KindConflict
	// KindNotFound marks an id or key that does not resolve.
	KindNotFound
	// KindUnauthorized marks failed credential verification.
	KindUnauthorized
)

// Error is a classified domain error. Services return it for every business-rule
// failure; unexpected failures stay plain wrapped errors and classify as KindInternal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorizedf(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried anywhere in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
