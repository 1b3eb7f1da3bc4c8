// Package errors provides the error handling system for the Cambist currency
// assistant. It defines a small taxonomy of error types, JSON response
// formatting, request ID tracking, and integrated logging with Uber's zap
// logger.
//
// The taxonomy mirrors how failures are treated at the service boundary:
//
//   - ValidationError: bad input (amount, currency code, date, message) —
//     the specific message is safe to show to the caller.
//   - UpstreamError: the rate service or the LLM API misbehaved — the
//     transport detail is logged, the caller sees a generic message.
//   - NotFoundError: a referenced resource does not exist.
//   - InternalError: everything else, including recovered panics.
//
// Basic usage:
//
//	errors.ErrorWithType(w, "Invalid currency code", errors.ValidationError, http.StatusBadRequest)
//
// For more complex scenarios, use the constructors in types.go:
//
//	err := errors.NewValidationError(requestID, "Invalid amount", map[string]interface{}{
//	    "field": "amount",
//	    "error": "must be positive",
//	})
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// If nil is provided, the function will do nothing to prevent
// accidentally disabling logging.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes an error for client handling. Each type corresponds
// to a specific failure scenario and carries an appropriate HTTP status code.
type ErrorType string

const (
	// ValidationError represents input validation failures: bad amounts,
	// malformed currency codes, out-of-range dates, empty messages.
	ValidationError ErrorType = "validation_error"

	// UpstreamError represents failures of the external rate service or
	// the LLM API: non-2xx responses, malformed payloads, timeouts.
	UpstreamError ErrorType = "upstream_error"

	// NotFoundError represents resource not found errors
	NotFoundError ErrorType = "not_found"

	// InternalError represents unexpected internal server errors
	InternalError ErrorType = "internal_error"

	// ConfigError represents configuration-related errors
	ConfigError ErrorType = "config_error"

	// RateLimitError represents inbound rate limiting errors
	RateLimitError ErrorType = "rate_limit_error"

	// BadRequestError represents invalid request format or parameters
	BadRequestError ErrorType = "bad_request"
)

// CambistError is the service's error type. It implements the error interface
// and carries enough context to serialize a useful JSON response while keeping
// the underlying cause available for logging.
type CambistError struct {
	// Type categorizes the error for client handling
	Type ErrorType

	// Message is a human-readable error description
	Message string

	// Code is the HTTP status code (never serialized)
	Code int

	// RequestID links the error to a specific request
	RequestID string

	// Details contains additional error context
	Details map[string]interface{}

	// err is the underlying error (never serialized)
	err error
}

// Error implements the error interface. It returns a string that
// combines the error type, message, and underlying error (if any).
func (e *CambistError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, implementing the unwrap
// interface for error chains.
func (e *CambistError) Unwrap() error {
	return e.err
}

// Is implements error matching for errors.Is, allowing type-based
// error matching while ignoring other fields.
func (e *CambistError) Is(target error) bool {
	t, ok := target.(*CambistError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError formats and writes a CambistError to an http.ResponseWriter.
// It sets the appropriate content type and status code, then writes the
// error in the ErrorResponse wire shape.
func WriteError(w http.ResponseWriter, err *CambistError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Type:      err.Type,
		Message:   err.Message,
		RequestID: err.RequestID,
		Details:   err.Details,
	})
}

// ErrorWithType is a drop-in replacement for http.Error that writes a typed
// JSON error. It automatically includes the request ID from the response
// headers if available.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	requestID := w.Header().Get("X-Request-ID")
	err := &CambistError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
	WriteError(w, err)
}
