// Package apperr is the error taxonomy shared by services and the HTTP layer.
// Services return *Error; handlers translate it into a status code and a
// stable machine readable code.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
	Upstream
	RateLimited
	Unauthorized
	Unprocessable
)

var kindCodes = map[Kind]string{
	Internal:      "INTERNAL_ERROR",
	Validation:    "VALIDATION_ERROR",
	NotFound:      "NOT_FOUND",
	Conflict:      "CONFLICT",
	Upstream:      "UPSTREAM_ERROR",
	RateLimited:   "RATE_LIMITED",
	Unauthorized:  "UNAUTHORIZED",
	Unprocessable: "UNPROCESSABLE_ENTITY",
}

var kindStatus = map[Kind]int{
	Internal:      http.StatusInternalServerError,
	Validation:    http.StatusBadRequest,
	NotFound:      http.StatusNotFound,
	Conflict:      http.StatusConflict,
	Upstream:      http.StatusBadGateway,
	RateLimited:   http.StatusTooManyRequests,
	Unauthorized:  http.StatusUnauthorized,
	Unprocessable: http.StatusUnprocessableEntity,
}

// Code is the stable string sent to clients.
func (k Kind) Code() string {
	return kindCodes[k]
}

func (k Kind) HTTPStatus() int {
	return kindStatus[k]
}

func (k Kind) String() string {
	return k.Code()
}

type Error struct {
	Kind Kind
	Msg  string
	// Field names the offending parameter for validation errors.
	Field string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cause keeps compatibility with github.com/pkg/errors.Cause.
func (e *Error) Cause() error {
	return e.cause
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewValidation reports a bad value for field.
func NewValidation(field, format string, args ...interface{}) *Error {
	e := newf(Validation, format, args...)
	e.Field = field
	return e
}

func NewNotFound(format string, args ...interface{}) *Error {
	return newf(NotFound, format, args...)
}

func NewConflict(format string, args ...interface{}) *Error {
	return newf(Conflict, format, args...)
}

func NewUnauthorized(format string, args ...interface{}) *Error {
	return newf(Unauthorized, format, args...)
}

func NewRateLimited(format string, args ...interface{}) *Error {
	return newf(RateLimited, format, args...)
}

func NewUnprocessable(field, format string, args ...interface{}) *Error {
	e := newf(Unprocessable, format, args...)
	e.Field = field
	return e
}

// NewUpstream wraps a failure of an external collaborator.
func NewUpstream(cause error, format string, args ...interface{}) *Error {
	e := newf(Upstream, format, args...)
	e.cause = cause
	return e
}

// NewInternal hides cause from clients; it is only logged.
func NewInternal(cause error, msg string) *Error {
	return &Error{Kind: Internal, Msg: msg, cause: cause}
}

// From converts any error into an *Error. Unknown errors become Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err, "internal server error")
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
