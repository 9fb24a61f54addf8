package service

import (
	"errors"
)

// Error kinds. Match them with errors.Is against any error the service returns.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
	ErrForbidden  = errors.New("forbidden")
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause, so errors.Is(err, ErrStorage)
// and errors.Is(err, storage.ErrDuplicateShortID) can hold at once.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

func storageError(msg string, err error) error {
	return &Error{Kind: ErrStorage, Msg: msg, Err: err}
}

func forbiddenError(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

// Message returns the caller-facing text of err, without the wrapped cause.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}
