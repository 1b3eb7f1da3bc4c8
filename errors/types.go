package errors

import (
	"net/http"
)

// NewError creates a new CambistError with the given parameters.
// It is a general-purpose constructor that allows full control over
// the error's fields. For most cases, you should use one of the
// specialized constructors below.
//
// Example:
//
//	err := NewError(InternalError, "store unavailable", 500, "req_123", nil, storeErr)
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *CambistError {
	return &CambistError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewValidationError creates a validation error with appropriate defaults.
// Use this for any request validation failures, such as:
//   - Non-positive conversion amounts
//   - Malformed or unsupported currency codes
//   - Empty or oversized chat messages
//
// Example:
//
//	err := NewValidationError("req_123", "Invalid message", map[string]interface{}{
//	    "field": "message",
//	    "error": "must not be empty",
//	})
func NewValidationError(requestID, message string, validationDetails map[string]interface{}) *CambistError {
	return &CambistError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   validationDetails,
	}
}

// NewNotFoundError creates a not-found error with appropriate defaults.
//
// Example:
//
//	err := NewNotFoundError("req_123", "unknown session")
func NewNotFoundError(requestID, message string) *CambistError {
	return &CambistError{
		Type:      NotFoundError,
		Message:   message,
		Code:      http.StatusNotFound,
		RequestID: requestID,
	}
}

// NewRateLimitError creates a rate limit error with appropriate defaults.
// Use this when a client has exceeded its request quota.
//
// Example:
//
//	err := NewRateLimitError("req_123", 30)
func NewRateLimitError(requestID string, retryAfter int) *CambistError {
	return &CambistError{
		Type:      RateLimitError,
		Message:   "Rate limit exceeded",
		Code:      http.StatusTooManyRequests,
		RequestID: requestID,
		Details: map[string]interface{}{
			"retry_after": retryAfter,
		},
	}
}

// NewInternalError creates an internal server error with appropriate defaults.
// Use this for unexpected errors that are not covered by other error types:
//   - Panics
//   - Unexpected system failures
//
// Example:
//
//	err := NewInternalError("req_123", err)
func NewInternalError(requestID string, err error) *CambistError {
	return &CambistError{
		Type:      InternalError,
		Message:   "An internal error occurred",
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
