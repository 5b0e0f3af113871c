// Package domainerrors carries coded errors across service and transport
// boundaries. Services return *Error values; the HTTP layer maps the code to a
// status and decides how much of the message is safe to show.
package domainerrors

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeRateLimited        Code = "rate_limited"
	CodeAttemptsExceeded   Code = "attempts_exceeded"
	CodeExpired            Code = "expired"
	CodeInvalidCode        Code = "invalid_code"
	CodeInvalidState       Code = "invalid_state"
	CodeUploadFailed       Code = "upload_failed"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Details hold machine-readable context such as
// the missing steps of a submission or the remaining cooldown.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail returns the error with an added detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost coded error carries code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// RateLimited builds a rate_limited error carrying the remaining wait.
func RateLimited(msg string, retryAfter time.Duration) *Error {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 && retryAfter > 0 {
		secs = 1
	}
	return New(CodeRateLimited, msg).
		WithDetail("retry_after_seconds", secs)
}

// RetryAfter returns the remaining wait carried by a rate_limited error.
func RetryAfter(err error) (time.Duration, bool) {
	de, ok := As(err)
	if !ok || de.Code != CodeRateLimited {
		return 0, false
	}
	secs, ok := de.Details["retry_after_seconds"].(int)
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
