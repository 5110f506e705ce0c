package types

import (
	"errors"
	"fmt"
)

// Error is a failure raised while evaluating or compiling a program.
// Every failure is fatal to the run that raised it.
type Error struct {
	Code   ErrorCode
	Detail string
}

// NewError creates an error with a formatted detail message
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String() + ": " + e.Code.Message()
	}
	return e.Code.String() + ": " + e.Detail
}

// Is matches a bare ErrorCode or another *Error with the same code
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the error code carried by err, or E_NONE
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c ErrorCode
	if errors.As(err, &c) {
		return c
	}
	return E_NONE
}
