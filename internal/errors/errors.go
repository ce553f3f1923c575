// Package errors provides the error wrapping used throughout this module.
// It re-exports the parts of github.com/pkg/errors that the rest of the
// code relies on, plus a Fatal marker for errors that should terminate a
// command instead of being treated as recoverable.
package errors

import "github.com/pkg/errors"

// New, Wrap, Wrapf, Errorf, Is, As, Cause and WithStack behave exactly as
// their github.com/pkg/errors counterparts.
var (
	New       = errors.New
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
	Errorf    = errors.Errorf
	Is        = errors.Is
	As        = errors.As
	Cause     = errors.Cause
	WithStack = errors.WithStack
)

// fatalError is a marker wrapper for an error that should cause a command
// to exit immediately with a non-zero status rather than being retried or
// swallowed.
type fatalError struct {
	s string
}

func (e *fatalError) Error() string {
	return e.s
}

// Fatal returns an error that is marked fatal.
func Fatal(s string) error {
	return &fatalError{s: s}
}

// Fatalf returns a fatal error with a formatted message.
func Fatalf(s string, args ...interface{}) error {
	return &fatalError{s: errors.Errorf(s, args...).Error()}
}

// IsFatal returns whether err was build using Fatal or Fatalf.
func IsFatal(err error) bool {
	_, ok := err.(*fatalError)
	return ok
}
