// Package service holds the business rules of the hostel backend: account
// registration and login, token-based identity resolution, password
// recovery through one-time codes and the complaint lifecycle.  Services
// talk to storage and notification through the small interfaces in
// store.go and report failures as *Error values whose Kind is one of the
// sentinels below.  Handlers translate kinds to HTTP statuses with
// errors.Is.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/hostel-buddy/internal/repository"
)

// Error kinds.
var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrPersistence          = errors.New("persistence failure")
)

// Error is a classified failure.  Msg is safe to show to a client except
// for ErrPersistence, whose cause is kept in Err for logging only.
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

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func fail(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) *Error {
	return fail(ErrValidation, format, args...)
}

// persistence wraps an unexpected store failure.  op names the step for
// the log line.  A value the column rejected as too long is the client's
// to fix and is reported as a validation error.
func persistence(op string, err error) *Error {
	if errors.Is(err, repository.ErrValueTooLong) {
		return &Error{Kind: ErrValidation, Msg: "a field is longer than allowed", Err: err}
	}
	return &Error{Kind: ErrPersistence, Msg: op, Err: err}
}

var errBadCredentials = fail(ErrUnauthenticated, "invalid email or password")
