// Package apperr defines the closed error taxonomy surfaced by the service
// layer. Every failure crossing the handler boundary is one of these; raw
// store, bcrypt, or JWT errors never leak to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a structured failure carrying an HTTP-style status and a
// client-safe message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// Upload marks a failed media upload. The original request is at fault
// (bad or missing file), so it maps to 400 rather than 502.
func Upload(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message}
}

// Status extracts the HTTP status from err, defaulting to 500 for
// anything outside the taxonomy.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Message extracts the client-safe message from err. Errors outside the
// taxonomy get a generic message so internals stay hidden.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
