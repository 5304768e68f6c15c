package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Every operation in the core surfaces one of the error kinds below;
// the API boundary translates kind to status code and never reinterprets it.

type unauthenticated struct{ msg string }

func NewUnauthenticatedError(msg string) error { return &unauthenticated{msg} }
func (e unauthenticated) Error() string        { return e.msg }

// IsUnauthenticated reports whether err means the caller is not authenticated.
func IsUnauthenticated(err error) bool {
	_, ok := errors.Cause(err).(*unauthenticated)
	return ok
}

type forbidden struct{ msg string }

func NewForbiddenError(msg string) error { return &forbidden{msg} }
func (e forbidden) Error() string        { return e.msg }

// IsForbidden reports whether err means a role, relationship or participant check failed.
func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*forbidden)
	return ok
}

type notFound struct{ msg string }

func NewNotFoundError(msg string) error { return &notFound{msg} }
func (e notFound) Error() string        { return e.msg }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}

type invalidInput struct{ msg string }

func NewInvalidInputError(msg string) error { return &invalidInput{msg} }
func (e invalidInput) Error() string        { return e.msg }

// IsInvalidInput reports whether err means the payload fails domain constraints
// beyond shape: bad date ordering, unsupported file type, empty line items...
func IsInvalidInput(err error) bool {
	_, ok := errors.Cause(err).(*invalidInput)
	return ok
}

type invalidState struct{ msg string }

func NewInvalidStateError(msg string) error { return &invalidState{msg} }
func (e invalidState) Error() string        { return e.msg }

// IsInvalidState reports whether err means the operation is illegal for the
// entity's current lifecycle state.
func IsInvalidState(err error) bool {
	_, ok := errors.Cause(err).(*invalidState)
	return ok
}

type conflict struct{ msg string }

func NewConflictError(msg string) error { return &conflict{msg} }
func (e conflict) Error() string        { return e.msg }

// IsConflict reports whether err means a concurrent write lost a uniqueness race.
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*conflict)
	return ok
}

type unavailable struct{ msg string }

func NewUnavailableError(msg string) error { return &unavailable{msg} }
func (e unavailable) Error() string        { return e.msg }

// IsUnavailable reports whether err means the store timed out or is unreachable.
func IsUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*unavailable)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
