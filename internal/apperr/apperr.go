/*****************************************************************************************************************/

// Package apperr defines the closed error taxonomy shared by the three
// service handlers, per spec §7. Every request-scoped failure is
// classified into exactly one Kind so dispatch can decide how to
// render it without inspecting message text.
package apperr

/*****************************************************************************************************************/

import (
	"errors"
	"fmt"
)

/*****************************************************************************************************************/

// Kind is one of the closed set of request-scoped error categories.
type Kind int

const (
	BadRequest Kind = iota
	NotFound
	IncompletePlate
	NoOverlap
	SchemaError
	RotationDeltaIllegal
	MalformedHeader
	LibraryError
	IoError
	Fatal
)

/*****************************************************************************************************************/

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "BadRequest"
	case NotFound:
		return "NotFound"
	case IncompletePlate:
		return "IncompletePlate"
	case NoOverlap:
		return "NoOverlap"
	case SchemaError:
		return "SchemaError"
	case RotationDeltaIllegal:
		return "RotationDeltaIllegal"
	case MalformedHeader:
		return "MalformedHeader"
	case LibraryError:
		return "LibraryError"
	case IoError:
		return "IoError"
	case Fatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

/*****************************************************************************************************************/

// Error wraps an underlying cause with its taxonomy Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, apperr.ErrNotFound) match any *Error of the
// same Kind, regardless of its message or cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

/*****************************************************************************************************************/

// New builds an *Error of the given kind with a formatted message and
// no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

/*****************************************************************************************************************/

// Wrap builds an *Error of the given kind around an existing error.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

/*****************************************************************************************************************/

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, defaulting to Fatal for unclassified errors: an error that
// reaches dispatch without having been classified indicates a bug in
// the core, not a condition the client can act on.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Fatal
}

/*****************************************************************************************************************/

// sentinel returns a zero-valued *Error of kind k, suitable as the
// target of errors.Is(err, apperr.ErrNotFound) style checks.
func sentinel(k Kind) *Error { return &Error{Kind: k} }

/*****************************************************************************************************************/

// These sentinels let callers write errors.Is(err, apperr.ErrNotFound)
// without constructing a throwaway *Error by hand.
var (
	ErrBadRequest           = sentinel(BadRequest)
	ErrNotFound             = sentinel(NotFound)
	ErrIncompletePlate      = sentinel(IncompletePlate)
	ErrNoOverlap            = sentinel(NoOverlap)
	ErrSchemaError          = sentinel(SchemaError)
	ErrRotationDeltaIllegal = sentinel(RotationDeltaIllegal)
	ErrMalformedHeader      = sentinel(MalformedHeader)
	ErrLibraryError         = sentinel(LibraryError)
	ErrIoError              = sentinel(IoError)
	ErrFatal                = sentinel(Fatal)
)
