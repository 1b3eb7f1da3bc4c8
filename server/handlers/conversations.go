package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/conversation"
)

// ConversationHandler serves conversation inspection and reset:
// GET /v1/conversations/{id} and POST /v1/conversations/{id}/clear.
type ConversationHandler struct {
	store  *conversation.Store
	logger *zap.Logger
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(store *conversation.Store, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{store: store, logger: logger}
}

// conversationResponse is the wire shape of a conversation. Messages is
// always present, even when empty, so clients need no nil checks.
type conversationResponse struct {
	SessionID     string                 `json:"session_id"`
	Messages      []conversation.Message `json:"messages"`
	TotalMessages int                    `json:"total_messages"`
}

// Get returns a session's retained history. An unknown session yields an
// empty conversation rather than an error: from the client's point of view
// a conversation that was never started and one that expired look the same.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	messages := h.store.History(sessionID)
	if messages == nil {
		messages = []conversation.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(conversationResponse{
		SessionID:     sessionID,
		Messages:      messages,
		TotalMessages: len(messages),
	})
}

// Clear resets a session's history.
func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	h.store.Clear(sessionID)

	h.logger.Info("conversation cleared", zap.String("session_id", sessionID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":     "cleared",
		"session_id": sessionID,
	})
}
