// Package handlers provides the HTTP handlers for the assistant API:
// chat completions, conversation inspection, and conversation reset.
//
// The handlers follow a few conventions:
// 1. Errors are written through the errors package so every failure is JSON
// 2. Every log line carries the request ID
// 3. Request validation happens before any state is touched
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/conversation"
	"github.com/cambist-ai/cambist/errors"
	"github.com/cambist-ai/cambist/server/middleware"
)

var validate = validator.New()

// Answerer resolves a user query against conversation history. The
// assistant package provides the production implementation.
type Answerer interface {
	Answer(ctx context.Context, query string, history []conversation.Message) string
}

// ChatRequest is the body of a chat completion request. SessionID is
// optional; omitting it starts a fresh conversation.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=500"`
	SessionID string `json:"session_id" validate:"omitempty,max=128"`
}

// ChatResponse is the reply to a chat completion request. The session ID is
// echoed back (or freshly generated) so clients can continue the
// conversation.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// ChatHandler handles POST /v1/chat/completions.
type ChatHandler struct {
	assistant Answerer
	store     *conversation.Store
	logger    *zap.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(assistant Answerer, store *conversation.Store, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		store:     store,
		logger:    logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	if err := validate.Struct(req); err != nil {
		details := map[string]interface{}{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, verr := range verrs {
				details[strings.ToLower(verr.Field())] = verr.Tag()
			}
		}
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid chat request", details))
		return
	}

	// The min=1 tag admits whitespace-only messages; reject those too.
	if strings.TrimSpace(req.Message) == "" {
		errors.WriteError(w, errors.NewValidationError(requestID, "Message must not be blank", nil))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history := h.store.History(sessionID)
	reply := h.assistant.Answer(r.Context(), req.Message, history)

	h.store.Append(sessionID, conversation.Message{Role: "user", Content: req.Message})
	h.store.Append(sessionID, conversation.Message{Role: "assistant", Content: reply})

	h.logger.Info("chat completion",
		zap.String("request_id", requestID),
		zap.String("session_id", sessionID),
		zap.Int("history_len", len(history)),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Response:  reply,
		SessionID: sessionID,
	})
}
