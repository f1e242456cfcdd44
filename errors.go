// Package rtos implements the scheduler and serial I/O core of a small
// preemptive real-time operating system for a single-core 32-bit target.
package rtos

import (
	"errors"
	"fmt"
	"syscall"
)

// Code is a high-level RTOS error category, mirroring the error taxonomy
// of the original C core (SYS_OK / ERR_BADPARAM / ...).
type Code string

const (
	CodeOK          Code = "ok"
	CodeBadParam    Code = "bad parameter"
	CodeInUse       Code = "peripheral in use"
	CodeUnsupported Code = "unsupported configuration"
	CodeNoMem       Code = "out of memory"
	CodeScheduler   Code = "scheduler fault"
	CodeNoSupport   Code = "operation not supported"
)

// Error is a structured RTOS error with enough context to diagnose a
// failing driver or scheduler call without string-matching the message.
type Error struct {
	Op    string        // Operation that failed ("task_create", "UART_open", ...)
	Code  Code          // High-level error category
	Errno syscall.Errno // POSIX errno, if this error crossed the syscall facade
	Msg   string        // Human-readable detail
	Inner error         // Wrapped cause, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("rtos: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("rtos: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison against another *Error by Code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// New creates a structured error with the given operation and code.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrno creates a structured error carrying a POSIX errno, for use at
// the syscall facade boundary.
func NewErrno(op string, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: CodeBadParam, Errno: errno, Msg: errno.Error()}
}

// Wrap attaches an operation name to an inner error, preserving its code
// if it is already a structured *Error.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ie, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: ie.Code, Errno: ie.Errno, Msg: ie.Msg, Inner: ie.Inner}
	}
	return &Error{Op: op, Code: CodeScheduler, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a structured Error carrying the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
