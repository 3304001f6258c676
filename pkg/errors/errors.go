package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying an HTTP status and, for validation
// failures, a field -> message map for per-field client feedback.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error renders the message, including the cause when one is attached.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a standalone domain error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap annotates a lower-level error with a code, status and client-safe
// message. The cause stays reachable through Unwrap but is never serialized.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Sentinel errors shared across handlers and services. Compare by Code,
// not by pointer: Clone and WithFields return copies.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrSchemaUnknown      = New("SCHEMA_UNKNOWN", http.StatusUnprocessableEntity, "unknown schema identifier")
	ErrReportNotReady     = New("REPORT_NOT_READY", http.StatusConflict, "report is not ready for download")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss signals a cache lookup miss; it never reaches clients.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError coerces any error to *Error, mapping unknown errors to an
// internal server error so raw messages never leak to clients.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel with an optional message override.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithFields returns a copy of the error annotated with field-level detail.
func WithFields(err *Error, fields map[string]string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Fields = fields
	return &clone
}
