package llm

import (
	"encoding/json"
	"fmt"
)

// Function names declared to the provider. The decoder below is the only
// place these strings are compared; everything downstream works with the
// typed variants.
const (
	FuncConvertCurrency        = "convert_currency"
	FuncGetSupportedCurrencies = "get_supported_currencies"
	FuncGetHistoricalRate      = "get_historical_rate"
)

// RawToolCall is a tool call as it appears on the wire: a function name and
// a JSON-encoded argument string.
type RawToolCall struct {
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ToolCall is the closed set of calls the assistant can dispatch. Decoding
// produces exactly one of the variants below; an unknown function name or
// malformed arguments is a decode error for that call alone.
type ToolCall interface {
	isToolCall()
}

// ConvertCall requests pricing of a single conversion.
type ConvertCall struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from_currency"`
	To     string  `json:"to_currency"`
}

// ListCurrenciesCall requests the supported-currency listing.
type ListCurrenciesCall struct{}

// HistoricalCall requests a dated unit rate.
type HistoricalCall struct {
	Date string `json:"date"`
	From string `json:"from_currency"`
	To   string `json:"to_currency"`
}

func (ConvertCall) isToolCall()        {}
func (ListCurrenciesCall) isToolCall() {}
func (HistoricalCall) isToolCall()     {}

// DecodeToolCall turns a wire tool call into its typed variant, validating
// argument presence as it goes.
func DecodeToolCall(raw RawToolCall) (ToolCall, error) {
	switch raw.Function.Name {
	case FuncConvertCurrency:
		var call ConvertCall
		if err := json.Unmarshal([]byte(raw.Function.Arguments), &call); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", raw.Function.Name, err)
		}
		if call.From == "" || call.To == "" {
			return nil, fmt.Errorf("missing currency arguments for %s", raw.Function.Name)
		}
		return call, nil

	case FuncGetSupportedCurrencies:
		return ListCurrenciesCall{}, nil

	case FuncGetHistoricalRate:
		var call HistoricalCall
		if err := json.Unmarshal([]byte(raw.Function.Arguments), &call); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", raw.Function.Name, err)
		}
		if call.Date == "" || call.From == "" || call.To == "" {
			return nil, fmt.Errorf("missing arguments for %s", raw.Function.Name)
		}
		return call, nil

	default:
		return nil, fmt.Errorf("unknown function: %q", raw.Function.Name)
	}
}
