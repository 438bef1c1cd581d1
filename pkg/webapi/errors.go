// Package webapi defines the JSON wire format shared by every handler:
// a response envelope plus typed API errors. Handlers map domain errors
// onto these; nothing else writes response bodies.
package webapi

import (
	"fmt"
	"net/http"
)

// Error codes carried in the "error" field of error responses.
const (
	CodeBadRequest      = "bad_request"
	CodeUnauthenticated = "unauthenticated"
	CodeInvalidToken    = "invalid_token"
	CodeAccessDenied    = "access_denied"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeRateLimited     = "rate_limit_exceeded"
	CodeServerError     = "server_error"
)

// APIError is a structured 4xx/5xx response. It implements error so
// services and handlers can pass it around like any other failure.
type APIError struct {
	// StatusCode is the HTTP status for this error.
	StatusCode int `json:"-"`

	// Code is a stable machine-readable error code.
	Code string `json:"error"`

	// Message is a human-readable description safe to show to callers.
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this error to w as a JSON body with its status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, e)
}

// New builds an APIError for one-off handler messages.
func New(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

var (
	// ErrUnauthenticated is the 401 for requests that need a principal and
	// have none. Distinct from ErrInvalidToken, which means a token was
	// presented and rejected.
	ErrUnauthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthenticated,
		Message:    "authentication required",
	}

	// ErrInvalidToken is the 401 for presented-but-rejected bearer tokens
	// (malformed, bad signature, expired, or unknown subject).
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidToken,
		Message:    "the bearer token is missing, invalid or expired",
	}

	// ErrForbidden is the 403 for authenticated principals lacking a
	// required permission. Never merged with the 401 path.
	ErrForbidden = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       CodeAccessDenied,
		Message:    "you do not have permission to access this resource",
	}

	// ErrServerError masks internal failures. Details go to the log, not
	// the wire.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeServerError,
		Message:    "internal server error",
	}
)
