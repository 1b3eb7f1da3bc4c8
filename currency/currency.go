// Package currency implements the deterministic conversion pipeline: request
// extraction from natural-language text, rate lookups against an external
// exchange-rate service, batch conversion with per-item failure isolation,
// and plain-text result formatting.
package currency

import (
	"fmt"
	"math"
	"strings"
)

// Request is a single conversion to price: an amount and a source/target
// currency pair. Codes are 3-letter ISO codes, normalized to uppercase.
// A Request is immutable once created.
type Request struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from_currency"`
	To     string  `json:"to_currency"`
}

// Validate checks the request invariants: positive amount and two 3-letter
// alphabetic codes. It returns an error naming the offending field; the
// message is safe to surface to the caller.
func (r Request) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive: %v", r.Amount)
	}
	if err := validateCode(r.From); err != nil {
		return fmt.Errorf("source currency: %w", err)
	}
	if err := validateCode(r.To); err != nil {
		return fmt.Errorf("target currency: %w", err)
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("code must be 3 letters: %q", code)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("code must be uppercase letters: %q", code)
		}
	}
	return nil
}

// NormalizeCode trims and uppercases a currency code candidate.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Result is the outcome of pricing one Request: either a success carrying
// the converted amount, unit rate, and rate date, or a failure carrying an
// error message. A Result is never mutated after creation.
type Result struct {
	Request

	// ConvertedAmount is the priced amount, rounded to 2 decimals.
	ConvertedAmount float64 `json:"converted_amount,omitempty"`

	// Rate is the unit exchange rate, rounded to 6 decimals.
	Rate float64 `json:"exchange_rate,omitempty"`

	// Date is the calendar date of the rate, YYYY-MM-DD.
	Date string `json:"date,omitempty"`

	// Err is the failure message; empty for successes.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Failure builds a failed Result for the given request.
func Failure(req Request, msg string) Result {
	return Result{Request: req, Err: msg}
}

// HistoricalRate is a dated unit exchange rate for a currency pair.
type HistoricalRate struct {
	Date string  `json:"date"`
	From string  `json:"from_currency"`
	To   string  `json:"to_currency"`
	Rate float64 `json:"exchange_rate"`
}

// round2 and round6 implement the service-wide precision policy:
// converted amounts carry 2 decimals, unit rates carry 6.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
