package cli

import (
	"fmt"
)

// UsageError is a special purpose error used to signal that usage information should be shown to the user.
// This is intended to be used as an error response for [Command] validation.
type UsageError struct {
	wrapped error
	command *Command
}

func (e *UsageError) Error() string {
	if e.wrapped == nil {
		return "usage error"
	}
	return "usage error: " + e.wrapped.Error()
}

func (e *UsageError) Is(err error) bool {
	_, ok := err.(*UsageError)
	return ok
}

func (e *UsageError) Unwrap() error {
	return e.wrapped
}

// NewUsageError is used to create a [UsageError].
// The format and args parameters are passed to [fmt.Errorf] to create the underlying error.
func NewUsageError(format string, args ...any) error {
	return &UsageError{wrapped: fmt.Errorf(format, args...)}
}

// ExitCoder may be implemented by an error returned from a [Command] to choose the process exit code reported by [Registry.Run].
type ExitCoder interface {
	error
	ExitCode() int
}

type exitError struct {
	code    int
	wrapped error
}

func (e *exitError) Error() string {
	return e.wrapped.Error()
}

func (e *exitError) Unwrap() error {
	return e.wrapped
}

func (e *exitError) ExitCode() int {
	return e.code
}

// WithExitCode wraps err so that [Registry.Run] exits with the given code.
// A nil err returns nil.
func WithExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, wrapped: err}
}
