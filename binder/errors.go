package binder

import (
	"errors"
	"fmt"
)

var (
	ErrNotACommand      = errors.New("not a command")
	ErrParameterBinding = errors.New("parameter binding failed")
	ErrSignature        = errors.New("unsupported method signature")
	ErrNoFlags          = errors.New("input has no flags")
)

// NotACommandError is returned from [Binder.Bind] when a method has no command metadata.
// It's not fatal to a registration pass, the method is just skipped.
type NotACommandError struct {
	Method string
}

func (e *NotACommandError) Error() string {
	return fmt.Sprintf("%s: method %s has no command metadata", ErrNotACommand, e.Method)
}

func (e *NotACommandError) Unwrap() error {
	return ErrNotACommand
}

// ParameterBindingError is returned when a parameter can't be bound to the command line.
// This is a configuration error that should be surfaced at startup.
type ParameterBindingError struct {
	Command string // Command is the full name of the command being bound.
	Param   string // Param is the name of the offending parameter.
	Reason  string
	Err     error
}

func (e *ParameterBindingError) Error() string {
	msg := fmt.Sprintf("%s: command '%s' parameter '%s'", ErrParameterBinding, e.Command, e.Param)
	if len(e.Reason) > 0 {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParameterBindingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParameterBinding}
	}
	return []error{ErrParameterBinding, e.Err}
}

// SignatureError is returned when a method's parameters or results can't be used as a command.
type SignatureError struct {
	Method string
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: method %s: %s", ErrSignature, e.Method, e.Reason)
}

func (e *SignatureError) Unwrap() error {
	return ErrSignature
}
