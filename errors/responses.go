package errors

// ErrorResponse is the wire shape of every error the service returns.
// WriteError projects a CambistError onto it, dropping the HTTP status code
// (carried by the response itself) and the underlying error (logged only).
type ErrorResponse struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
