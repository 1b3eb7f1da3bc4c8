package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cambist-ai/cambist/config"
	"github.com/cambist-ai/cambist/conversation"
	"github.com/cambist-ai/cambist/server/handlers"
	"github.com/cambist-ai/cambist/server/metrics"
	"github.com/cambist-ai/cambist/server/middleware"
)

type staticAnswerer string

func (s staticAnswerer) Answer(context.Context, string, []conversation.Message) string {
	return string(s)
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	middleware.ResetRateLimiters()

	logger := zaptest.NewLogger(t)
	store := conversation.NewStore(config.ConversationConfig{
		HistoryWindow: 10,
		MaxMessages:   20,
		MaxSessions:   100,
	}, logger)
	m := metrics.NewMetrics()

	chat := handlers.NewChatHandler(staticAnswerer("85.00 EUR"), store, logger)
	conversations := handlers.NewConversationHandler(store, logger)
	return NewRouter(chat, conversations, m, logger)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	// Generate some traffic first so counters exist.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cambist_http_requests_total")
}

func TestChatRoute(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"message": "Convert 100 USD to EUR"}`)
	req := httptest.NewRequest("POST", "/v1/chat/completions", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Response-Time"))

	var resp handlers.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "85.00 EUR", resp.Response)
	assert.NotEmpty(t, resp.SessionID)
}

func TestConversationRoutes(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"message": "hello there friend", "session_id": "abc"}`)
	req := httptest.NewRequest("POST", "/v1/chat/completions", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/conversations/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_messages":2`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/conversations/abc/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/conversations/abc", nil))
	assert.Contains(t, rec.Body.String(), `"total_messages":0`)
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"validation_error"`)
}
