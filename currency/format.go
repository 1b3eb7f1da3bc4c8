package currency

import (
	"fmt"
	"sort"
	"strings"
)

// emptyResultsMessage is the fixed response when there is nothing to report.
const emptyResultsMessage = "I couldn't process any conversions from your request."

// Format renders conversion results as user-facing text: one labeled section
// per result, 1-indexed in input order. Failures show a single error line;
// successes show the converted amount, the unit rate, and the rate date.
//
// Amounts are always formatted with 2 decimals and rates with 6, at every
// call site.
func Format(results []Result) string {
	if len(results) == 0 {
		return emptyResultsMessage
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Conversion %d:\n", i+1)
		if r.Failed() {
			fmt.Fprintf(&b, "Error: %s\n", r.Err)
			continue
		}
		fmt.Fprintf(&b, "%.2f %s = %.2f %s\n", r.Amount, r.From, r.ConvertedAmount, r.To)
		fmt.Fprintf(&b, "Exchange Rate: 1 %s = %.6f %s\n", r.From, r.Rate, r.To)
		fmt.Fprintf(&b, "Rate Date: %s\n", r.Date)
	}
	return b.String()
}

// FormatCurrencies renders the supported-currency mapping as a sorted list.
func FormatCurrencies(currencies map[string]string) string {
	codes := make([]string, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b strings.Builder
	b.WriteString("Here are the supported currencies:\n")
	for _, code := range codes {
		fmt.Fprintf(&b, "- %s: %s\n", code, currencies[code])
	}
	return b.String()
}

// FormatHistoricalRate renders a dated unit rate.
func FormatHistoricalRate(hr HistoricalRate) string {
	var b strings.Builder
	b.WriteString("Historical Exchange Rate\n")
	fmt.Fprintf(&b, "Date: %s\n", hr.Date)
	fmt.Fprintf(&b, "1 %s = %.6f %s\n", hr.From, hr.Rate, hr.To)
	return b.String()
}
