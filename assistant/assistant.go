// Package assistant orchestrates the two answer paths: a deterministic fast
// path for queries the phrase extractor understands, and an escalation path
// that hands everything else to a language model armed with currency tools.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/config"
	"github.com/cambist-ai/cambist/conversation"
	"github.com/cambist-ai/cambist/currency"
	"github.com/cambist-ai/cambist/llm"
	"github.com/cambist-ai/cambist/server/metrics"
)

// Fixed fallback texts. Callers rely on Answer never returning an error, so
// every failure mode maps to one of these.
const (
	connectivityFallback = "I'm having trouble connecting to the AI service. Please try again."
	genericFallback      = "I encountered an error processing your request. Please try again."
)

// RateService is the slice of the currency client the assistant needs.
type RateService interface {
	currency.Converter
	SupportedCurrencies(ctx context.Context) (map[string]string, error)
	Historical(ctx context.Context, date, from, to string) (currency.HistoricalRate, error)
}

// Completer is the slice of the LLM client the assistant needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error)
}

// Assistant answers user queries about currency conversion.
type Assistant struct {
	rates   RateService
	llm     Completer
	tokens  *llm.TokenCounter
	metrics *metrics.Metrics
	logger  *zap.Logger

	historyWindow    int
	maxHistoryTokens int
}

// New creates an assistant. tokens may be nil, in which case history is
// bounded only by the message window.
func New(rates RateService, completer Completer, tokens *llm.TokenCounter,
	llmCfg config.LLMConfig, convCfg config.ConversationConfig,
	m *metrics.Metrics, logger *zap.Logger) *Assistant {
	return &Assistant{
		rates:            rates,
		llm:              completer,
		tokens:           tokens,
		metrics:          m,
		logger:           logger,
		historyWindow:    convCfg.HistoryWindow,
		maxHistoryTokens: llmCfg.MaxHistoryTokens,
	}
}

// Answer resolves a query to a reply. It never returns an error: failures
// surface as fixed fallback texts so the conversation can continue.
func (a *Assistant) Answer(ctx context.Context, query string, history []conversation.Message) string {
	if reqs := currency.Extract(query); len(reqs) > 0 {
		results := currency.ConvertAll(ctx, a.rates, reqs)
		a.countConversions(results)
		return currency.Format(results)
	}
	return a.escalate(ctx, query, history)
}

// countConversions records one conversion per result, labelled by whether
// the lookup succeeded.
func (a *Assistant) countConversions(results []currency.Result) {
	for _, res := range results {
		outcome := "success"
		if res.Failed() {
			outcome = "failure"
		}
		a.metrics.ConversionsTotal.WithLabelValues(outcome).Inc()
	}
}

// escalate hands the query to the language model and records whether the
// escalation produced an answer or fell back to a canned reply.
func (a *Assistant) escalate(ctx context.Context, query string, history []conversation.Message) string {
	reply := a.completeWithTools(ctx, query, history)

	outcome := "success"
	if reply == connectivityFallback || reply == genericFallback {
		outcome = "failure"
	}
	a.metrics.EscalationsTotal.WithLabelValues(outcome).Inc()
	return reply
}

// completeWithTools sends the query to the language model along with recent
// history and the tool declarations, then executes whatever tools it asks for.
func (a *Assistant) completeWithTools(ctx context.Context, query string, history []conversation.Message) string {
	messages := a.buildMessages(query, history)
	completion, err := a.llm.Complete(ctx, messages, llm.Tools())
	if err != nil {
		a.logger.Warn("llm completion failed", zap.Error(err))
		if errors.Is(err, llm.ErrConnectivity) {
			return connectivityFallback
		}
		return genericFallback
	}

	if len(completion.ToolCalls) == 0 {
		if completion.Content == "" {
			return genericFallback
		}
		return completion.Content
	}
	return a.runTools(ctx, completion.ToolCalls)
}

// buildMessages assembles the upstream prompt: system instructions, a
// token-budgeted window of recent history, and the query itself.
func (a *Assistant) buildMessages(query string, history []conversation.Message) []llm.Message {
	if n := len(history) - a.historyWindow; n > 0 {
		history = history[n:]
	}

	recent := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		recent = append(recent, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	if a.tokens != nil {
		recent = a.tokens.TrimToBudget(recent, a.maxHistoryTokens)
	}

	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: "system", Content: llm.SystemPrompt})
	messages = append(messages, recent...)
	return append(messages, llm.Message{Role: "user", Content: query})
}

// runTools executes the model's tool calls. Each call is isolated: one
// failing call produces an error section without affecting the others.
// Conversion calls are aggregated into a single formatted block at the
// position of the first conversion.
func (a *Assistant) runTools(ctx context.Context, calls []llm.RawToolCall) string {
	var (
		sections    []string
		conversions []currency.Request
		convSlot    = -1
	)

	for _, raw := range calls {
		call, err := llm.DecodeToolCall(raw)
		if err != nil {
			a.logger.Warn("undecodable tool call",
				zap.String("function", raw.Function.Name),
				zap.Error(err))
			a.metrics.ToolCallsTotal.WithLabelValues("unknown").Inc()
			sections = append(sections, "Error: I couldn't process one of the requested operations.")
			continue
		}

		switch c := call.(type) {
		case llm.ConvertCall:
			a.metrics.ToolCallsTotal.WithLabelValues(llm.FuncConvertCurrency).Inc()
			if convSlot == -1 {
				convSlot = len(sections)
				sections = append(sections, "")
			}
			conversions = append(conversions, currency.Request{
				Amount: c.Amount,
				From:   currency.NormalizeCode(c.From),
				To:     currency.NormalizeCode(c.To),
			})

		case llm.ListCurrenciesCall:
			a.metrics.ToolCallsTotal.WithLabelValues(llm.FuncGetSupportedCurrencies).Inc()
			listing, err := a.rates.SupportedCurrencies(ctx)
			if err != nil {
				a.logger.Warn("supported currencies lookup failed", zap.Error(err))
				sections = append(sections, "Error: couldn't fetch the supported currencies. Please try again.")
				continue
			}
			sections = append(sections, currency.FormatCurrencies(listing))

		case llm.HistoricalCall:
			a.metrics.ToolCallsTotal.WithLabelValues(llm.FuncGetHistoricalRate).Inc()
			rate, err := a.rates.Historical(ctx, c.Date, currency.NormalizeCode(c.From), currency.NormalizeCode(c.To))
			if err != nil {
				sections = append(sections, fmt.Sprintf("Error: %s", err))
				continue
			}
			sections = append(sections, currency.FormatHistoricalRate(rate))
		}
	}

	if convSlot >= 0 {
		results := currency.ConvertAll(ctx, a.rates, conversions)
		a.countConversions(results)
		sections[convSlot] = currency.Format(results)
	}

	if len(sections) == 0 {
		return genericFallback
	}
	return strings.Join(sections, "\n\n")
}
