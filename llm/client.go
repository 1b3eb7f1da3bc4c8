// Package llm provides the escalation client for the Cambist assistant: an
// OpenAI-compatible chat completions client with function-calling support,
// typed tool-call decoding, and token counting for history budgeting.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/config"
)

var (
	// ErrConnectivity marks transport-level failures: dial errors, timeouts,
	// non-2xx statuses, and an open circuit breaker.
	ErrConnectivity = errors.New("llm connectivity error")

	// ErrMalformed marks responses that arrived but could not be used:
	// undecodable bodies or empty choice lists.
	ErrMalformed = errors.New("llm response malformed")
)

// Message is a single chat message in the provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the useful part of a chat completion response: either plain
// text content or a list of requested tool calls (occasionally both; content
// wins only when no tool calls are present).
type Completion struct {
	Content   string
	ToolCalls []RawToolCall
}

// Client talks to an OpenAI-compatible chat completions endpoint with bearer
// authentication. Calls run through a circuit breaker so a failing provider
// is cut off quickly instead of stacking up 30-second timeouts.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

// NewClient creates an LLM client from configuration.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: timeout},
		breaker:     breaker,
		logger:      logger,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Tools       []Tool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string        `json:"content"`
			ToolCalls []RawToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages and tool declarations to the provider and
// returns the first choice. Errors wrap either ErrConnectivity or
// ErrMalformed so callers can pick the right user-facing fallback.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrConnectivity)
		}
		return nil, err
	}

	payload := v.(*chatResponse)
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformed)
	}

	msg := payload.Choices[0].Message
	return &Completion{
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
	}, nil
}

func (c *Client) send(ctx context.Context, body []byte) (*chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("llm request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("llm request rejected",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrConnectivity, resp.StatusCode)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("llm response undecodable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &payload, nil
}
