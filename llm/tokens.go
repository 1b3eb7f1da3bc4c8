package llm

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts message tokens using the tiktoken encoding for a
// model, and trims history to a token budget before it is sent upstream.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter for the specified model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding for model %s: %v", model, err)
	}
	return &TokenCounter{encoding: encoding}, nil
}

// CountTokens counts the tokens in a message, including a small fixed
// overhead for the role and message framing.
func (tc *TokenCounter) CountTokens(msg Message) int {
	return len(tc.encoding.Encode(msg.Content, nil, nil)) + 4
}

// TrimToBudget drops messages oldest-first until the remainder fits the
// token budget. The relative order of kept messages is preserved. A budget
// of zero or less keeps nothing.
func (tc *TokenCounter) TrimToBudget(messages []Message, budget int) []Message {
	if budget <= 0 {
		return nil
	}

	total := 0
	// Walk backwards so the newest messages are kept.
	cut := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		n := tc.CountTokens(messages[i])
		if total+n > budget {
			break
		}
		total += n
		cut = i
	}
	return messages[cut:]
}
