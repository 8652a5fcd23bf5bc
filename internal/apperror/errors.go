// Package apperror provides the domain error type for Roster. Every error a
// pipeline step short-circuits with is either an *AppError or gets wrapped in
// one by the HTTP error handler, so the client only ever sees a status code
// and a safe message.
//
// Raw store errors (SQL, Redis) must never reach the client. Wrap them with
// NewInternal and let the error handler log the cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status code, a machine-readable type and a
// client-safe message. Internal holds the cause for logging only.
type AppError struct {
	// Code is the HTTP status code (e.g., 401, 404, 500).
	Code int `json:"-"`

	// Type is a machine-readable classifier (e.g., "unauthorized").
	Type string `json:"type"`

	// Message is safe to show to the client.
	Message string `json:"message"`

	// Internal is the underlying error. Never exposed to the client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another *AppError with the same code and type, so sentinel
// AppErrors work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// --- Constructors ---

// NewNotFound creates a 404 error for an id with no backing record.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest creates a 400 error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewUnauthorized creates a 401 error. Used for bad credentials and
// missing or unverifiable API tokens.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewForbidden creates a 403 error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewConflict creates a 409 error (e.g., duplicate username).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewValidation creates a 422 error. Form submissions never raise this (they
// flash and redirect instead); JSON callers may.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: message,
	}
}

// NewInternal creates a 500 error. The real error is kept in Internal for
// logging; the client sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// --- Helpers ---

// SafeMessage returns the client-safe message for any error.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code carried by err, or 500.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is (or wraps) a 404 AppError.
func IsNotFound(err error) bool {
	return SafeCode(err) == http.StatusNotFound
}
