// Package errors defines the domain error type shared by the services and
// the HTTP layer. Errors are compared by code, so a wrapped copy carrying a
// cause still matches its sentinel under errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *DomainError, err error) *DomainError {
	return &DomainError{Code: base.Code, Message: base.Message, Err: err}
}

// WithMessage returns a copy of base with a more specific message.
func WithMessage(base *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
