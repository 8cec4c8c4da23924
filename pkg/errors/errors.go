// Package errors defines the typed error taxonomy shared by services and the
// HTTP layer. Each Code maps to one HTTP status and one public message.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeIntegrity      Code = "INTEGRITY_VIOLATION"
	CodeTenantNotFound Code = "TENANT_NOT_FOUND"
	CodeIdempotency    Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit      Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeDependency     Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered to clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, public string, retryable, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, Retryable: retryable, DetailsAllowed: details}
}

// A missing tenant means the session resolved to a user whose store vanished,
// which is a server-side inconsistency rather than a client error.
var metadataByCode = map[Code]Metadata{
	CodeValidation:     meta(http.StatusBadRequest, "validation failed", false, true),
	CodeUnauthorized:   meta(http.StatusUnauthorized, "authentication required", false, false),
	CodeNotFound:       meta(http.StatusNotFound, "resource not found", false, false),
	CodeConflict:       meta(http.StatusConflict, "conflict detected", false, false),
	CodeIntegrity:      meta(http.StatusConflict, "resource still referenced", false, true),
	CodeTenantNotFound: meta(http.StatusInternalServerError, "internal server error", false, false),
	CodeIdempotency:    meta(http.StatusConflict, "idempotency key reused", false, true),
	CodeRateLimit:      meta(http.StatusTooManyRequests, "rate limit exceeded", false, false),
	CodeInternal:       meta(http.StatusInternalServerError, "internal server error", true, false),
	CodeDependency:     meta(http.StatusServiceUnavailable, "dependency unavailable", true, true),
}

// MetadataFor returns the rendering rules for code. Unknown codes render as
// CodeInternal.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// HTTPStatus is shorthand for MetadataFor(c).HTTPStatus.
func (c Code) HTTPStatus() int {
	return MetadataFor(c).HTTPStatus
}

// Error is a coded error carrying a caller-facing message, optional details,
// and an optional wrapped cause.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with fmt formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	e := New(code, message)
	e.cause = err
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether the outermost typed error in err's chain has code.
func Is(err error, code Code) bool {
	return As(err).codeOrEmpty() == code
}

func (e *Error) codeOrEmpty() Code {
	if e == nil {
		return ""
	}
	return e.code
}
