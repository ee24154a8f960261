package apierror

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure carried by an Error
type Code string

const (
	// CodeUnknown is the code of errors created without an explicit one
	CodeUnknown Code = "Unknown"

	// Codec failures
	CodeMissingRequiredField Code = "MissingRequiredField"
	CodeUnknownDiscriminator Code = "UnknownDiscriminator"
	CodeMalformedValue       Code = "MalformedValue"

	// Failures surfaced from the transport layer
	CodeTimeout            Code = "Timeout"
	CodeServiceUnavailable Code = "ServiceUnavailable"
	CodeCommunication      Code = "Communication"
	CodeNotFound           Code = "NotFound"
	CodeInvalidArgument    Code = "InvalidArgument"
)

// Error is the single error type returned by this module. It is created at
// the failure site and never modified afterwards.
type Error struct {
	message   string
	code      Code
	transient bool
	cause     error
}

// New returns an Error with CodeUnknown that is not transient
func New() *Error {
	return &Error{code: CodeUnknown}
}

// NewMessage returns a non-transient CodeUnknown Error with a message
func NewMessage(message string) *Error {
	return &Error{message: message, code: CodeUnknown}
}

// NewCode returns an Error with an explicit code and transience flag
func NewCode(message string, code Code, transient bool) *Error {
	if code == "" {
		code = CodeUnknown
	}
	return &Error{message: message, code: code, transient: transient}
}

// Wrap returns an Error carrying cause
func Wrap(message string, code Code, transient bool, cause error) *Error {
	e := NewCode(message, code, transient)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = "operation failed"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, msg)
}

// Message returns the message without code or cause
func (e *Error) Message() string { return e.message }

// Code returns the error code
func (e *Error) Code() Code { return e.code }

// IsTransient reports whether the caller may retry the failed operation
func (e *Error) IsTransient() bool { return e.transient }

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error { return e.cause }

// MissingRequiredField returns the error for an absent required field
func MissingRequiredField(record, field string) *Error {
	return NewCode(fmt.Sprintf("%s: required field %s is missing", record, field), CodeMissingRequiredField, false)
}

// UnknownDiscriminator returns the error for a discriminator value with no
// registered shape
func UnknownDiscriminator(union, field, value string) *Error {
	return NewCode(fmt.Sprintf("%s: unknown %s %q", union, field, value), CodeUnknownDiscriminator, false)
}

// MalformedValue returns the error for a value that could not be parsed
func MalformedValue(record, field string, cause error) *Error {
	return Wrap(fmt.Sprintf("%s: invalid value for %s", record, field), CodeMalformedValue, false, cause)
}

// CodeOf returns the code of the first Error in err's chain, CodeUnknown if
// there is none, or "" for a nil error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// IsTransient reports whether err carries a transient Error
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.transient
	}
	return false
}

// IsMissingRequiredField returns true if err is a MissingRequiredField error
func IsMissingRequiredField(err error) bool {
	return hasCode(err, CodeMissingRequiredField)
}

// IsUnknownDiscriminator returns true if err is an UnknownDiscriminator error
func IsUnknownDiscriminator(err error) bool {
	return hasCode(err, CodeUnknownDiscriminator)
}

// IsMalformedValue returns true if err is a MalformedValue error
func IsMalformedValue(err error) bool {
	return hasCode(err, CodeMalformedValue)
}

func hasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}
