// Package corerr defines the stable error taxonomy shared by every layer of
// the storage core (§6, §7 of the spec). Callers classify failures by Kind
// rather than matching on error strings.
package corerr

import "github.com/pkg/errors"

// Kind classifies a core error into one of the stable categories consumed
// by upward layers (the Node, the COB layer, the CLI).
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindInvalidRef      Kind = "InvalidRef"
	KindBadSignature    Kind = "BadSignature"
	KindBadEncoding     Kind = "BadEncoding"
	KindUnknownKey      Kind = "UnknownKey"
	KindMissingObject   Kind = "MissingObject"
	KindDoc             Kind = "DocError"
	KindNoCanonicalHead Kind = "NoCanonicalHead"
	KindIO              Kind = "Io"
	KindGit             Kind = "Git"
)

// Error is the structured error type returned by core operations. It wraps
// an underlying cause (possibly nil) with a stable Kind and a human message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an Error of the given kind with the given message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind, wrapping cause with pkg/errors so
// the original stack trace survives.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: errors.Wrap(cause, message)}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsNotFound reports whether err (or any error it wraps) represents an
// absence rather than some other failure, mirroring storage.rs's
// Error::is_not_found so callers can implement create-on-miss patterns.
func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			if ce.Kind == kind {
				return true
			}
			err = ce.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// NoCanonicalHead is returned by the quorum pass when no candidate at a
// given path reaches the delegate threshold (§4.I).
var NoCanonicalHead = New(KindNoCanonicalHead, "no canonical head: quorum not reached")
