// Package errors provides a way to return coded error information
// across the engine boundary. The error is normally JSON encoded.
package errors

import (
	"encoding/json"
	"errors"
)

// Engine error codes. Callers branch on codes, not on detail strings.
const (
	CodeUnknown              int16 = -1
	CodeExhaustedDeck        int16 = 1
	CodeInvalidSessionAction int16 = 2
	CodeAbilityNotUnlocked   int16 = 3
	CodeSessionTimeout       int16 = 4
	CodeUnknownVariant       int16 = 5
	CodeInvalidConfig        int16 = 6
)

type Error struct {
	Code   int32  `json:"code"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New generates a custom error.
func New(code int16, msg string) error {
	return &Error{
		Code:   int32(code),
		Detail: msg,
	}
}

// Equal tries to compare errors
func Equal(err1 error, err2 error) bool {
	verr1, ok1 := err1.(*Error)
	verr2, ok2 := err2.(*Error)

	if ok1 != ok2 {
		return false
	}

	if !ok1 {
		return err1 == err2
	}

	if verr1.Code != verr2.Code {
		return false
	}

	return true
}

// Is reports whether err carries the given engine code.
func Is(err error, code int16) bool {
	verr, ok := As(err)
	if !ok {
		return false
	}
	return verr.Code == int32(code)
}

// FromError try to convert go error to *Error
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if verr, ok := err.(*Error); ok && verr != nil {
		return verr
	}
	return &Error{
		Code:   int32(CodeUnknown),
		Detail: err.Error(),
	}
}

// As finds the first error in err's chain that matches *Error
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var merr *Error
	if errors.As(err, &merr) {
		return merr, true
	}
	return nil, false
}

type MultiError struct {
	Errors []*Error `json:"errors"`
}

func NewMultiError() *MultiError {
	return &MultiError{
		Errors: make([]*Error, 0),
	}
}

func (e *MultiError) Append(err *Error) {
	e.Errors = append(e.Errors, err)
}

func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *MultiError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}
