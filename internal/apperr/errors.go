// Package apperr defines the typed errors returned by the service layer.
// Every error carries the HTTP status and machine-readable code used by the
// error envelope, so clients can branch on Code instead of Message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error identifier placed in the envelope.
type Code string

const (
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeTokenExpired    Code = "TOKEN_EXPIRED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "RESOURCE_NOT_FOUND"
	CodeUserNotFound    Code = "USER_NOT_FOUND"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeDuplicate       Code = "DUPLICATE_RESOURCE"
	CodeValidation      Code = "VALIDATION_FAILED"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeDatabase        Code = "DATABASE_ERROR"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// Error is a request-scoped failure with an HTTP mapping.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, &Error{Code: ...})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func newError(status int, code Code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

func Unauthorized(msg string) *Error { return newError(http.StatusUnauthorized, CodeUnauthorized, msg) }

func TokenExpired(msg string) *Error { return newError(http.StatusUnauthorized, CodeTokenExpired, msg) }

func Forbidden(msg string) *Error { return newError(http.StatusForbidden, CodeForbidden, msg) }

func NotFound(msg string) *Error { return newError(http.StatusNotFound, CodeNotFound, msg) }

func UserNotFound(msg string) *Error { return newError(http.StatusNotFound, CodeUserNotFound, msg) }

func Conflict(msg string) *Error { return newError(http.StatusConflict, CodeStateConflict, msg) }

func Duplicate(msg string) *Error { return newError(http.StatusConflict, CodeDuplicate, msg) }

func Validation(msg string) *Error { return newError(http.StatusBadRequest, CodeValidation, msg) }

func TooManyRequests(msg string) *Error {
	return newError(http.StatusTooManyRequests, CodeTooManyRequests, msg)
}

// Database wraps an unclassified storage failure.
func Database(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeDatabase, Message: "Database error", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal when err is not typed.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}
