// Package shared contains cross-cutting domain primitives: the error
// taxonomy, pagination metadata and the request principal.
package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure so the boundary can map it to a
// transport status without inspecting error strings.
type Kind int

const (
	// KindInternal marks failures not attributable to caller input.
	KindInternal Kind = iota
	// KindValidation marks malformed or out-of-range caller input.
	KindValidation
	// KindUnauthorized marks missing or bad credentials and tokens.
	KindUnauthorized
	// KindForbidden marks operations the actor is not allowed to perform.
	KindForbidden
	// KindNotFound marks operations addressed at a non-existent resource.
	KindNotFound
	// KindConflict marks uniqueness violations such as duplicate emails.
	KindConflict
)

// String returns a stable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified domain error. The message is safe to show to
// callers; the wrapped cause is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error with a caller-facing message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds a classified error with a formatted caller-facing message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapErr attaches operation context to an unexpected lower-level error.
// Already-classified errors pass through unchanged so the original kind
// survives layering.
func WrapErr(message string, err error) error {
	var domain *Error
	if errors.As(err, &domain) {
		return err
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the classification of err, defaulting to KindInternal
// for anything that is not a domain error.
func KindOf(err error) Kind {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Kind
	}
	return KindInternal
}

// UserSafeMessage returns a message suitable for callers. Internal causes
// are masked behind a generic message.
func UserSafeMessage(err error) string {
	var domain *Error
	if errors.As(err, &domain) && domain.Kind != KindInternal {
		return domain.Message
	}
	return "internal error"
}
