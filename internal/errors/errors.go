// Package errors provides the uniform error shape used across LibraryHub.
//
// Every failure a page can show, whether it came from the network, from the
// library service, or from local form validation, is an *Error with one
// human-readable Message:
//
//	books, err := client.ListBooks(ctx, query)
//	if err != nil {
//	    flash(errors.Message(err))
//	}
//
//	// Branch on the code with errors.Is
//	if errors.Is(err, errors.ErrUnauthorized) {
//	    redirectToLogin()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Kind says where a failure originated.
type Kind string

// Error kinds.
const (
	// KindTransport covers network failures and deadline expiry.
	KindTransport Kind = "transport"
	// KindBusiness covers non-2xx answers from the library service.
	KindBusiness Kind = "business"
	// KindValidation covers input rejected before any request was sent.
	KindValidation Kind = "validation"
	// KindLocal covers client state refusals (unconfirmed delete, duplicate click).
	KindLocal Kind = "local"
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeValidation           Code = "VALIDATION"
	CodeConflict             Code = "CONFLICT"
	CodeInternal             Code = "INTERNAL"
	CodeTimeout              Code = "TIMEOUT"
	CodeUnavailable          Code = "UNAVAILABLE"
	CodeConfirmationRequired Code = "CONFIRMATION_REQUIRED"
	CodeInFlight             Code = "IN_FLIGHT"
	CodeRateLimited          Code = "RATE_LIMITED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInFlight:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation, CodeConfirmationRequired:
		return http.StatusBadRequest
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeForStatus maps a library service HTTP status to a code.
func CodeForStatus(status int) Code {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status >= 400 && status < 500:
		return CodeValidation
	default:
		return CodeInternal
	}
}

// Error is the uniform failure shape. Message is always safe to show a user.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code"`
	Status  int    `json:"status,omitempty"` // library service status for KindBusiness
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy with details attached.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound             = &Error{Kind: KindBusiness, Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized         = &Error{Kind: KindBusiness, Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden            = &Error{Kind: KindBusiness, Code: CodeForbidden, Message: "forbidden"}
	ErrValidation           = &Error{Kind: KindValidation, Code: CodeValidation, Message: "validation error"}
	ErrConflict             = &Error{Kind: KindBusiness, Code: CodeConflict, Message: "conflict"}
	ErrInternal             = &Error{Kind: KindBusiness, Code: CodeInternal, Message: "internal error"}
	ErrTimeout              = &Error{Kind: KindTransport, Code: CodeTimeout, Message: "request timed out"}
	ErrUnavailable          = &Error{Kind: KindTransport, Code: CodeUnavailable, Message: "service unavailable"}
	ErrConfirmationRequired = &Error{Kind: KindLocal, Code: CodeConfirmationRequired, Message: "confirmation required"}
	ErrInFlight             = &Error{Kind: KindLocal, Code: CodeInFlight, Message: "action already in progress"}
	ErrRateLimited          = &Error{Kind: KindBusiness, Code: CodeRateLimited, Message: "too many requests"}
)

// Business builds the error for a non-2xx library service response.
func Business(status int, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: KindBusiness, Code: CodeForStatus(status), Status: status, Message: msg}
}

// Transport builds the error for a failed round trip.
func Transport(err error, msg string) *Error {
	return &Error{Kind: KindTransport, Code: CodeUnavailable, Message: msg, cause: err}
}

// Timeout builds the error for a call that exceeded its deadline.
func Timeout(err error, msg string) *Error {
	return &Error{Kind: KindTransport, Code: CodeTimeout, Message: msg, cause: err}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindBusiness, Code: CodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindBusiness, Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindBusiness, Code: CodeForbidden, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Kind: KindBusiness, Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Kind: KindBusiness, Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Kind: KindBusiness, Code: code, Message: msg, cause: err}
}

// Message returns the text a page should display for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// KindOf returns the kind of err, or KindTransport for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}
