package currency

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// codePattern matches the canonical conversion phrase: an amount, a 3-letter
// code, a connective, and another 3-letter code, e.g. "100 USD to EUR" or
// "50.5 gbp in jpy". Matches are non-overlapping and scanned left to right.
var codePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*([a-zA-Z]{3})\s*(?:to|in|into)\s*([a-zA-Z]{3})`)

// namePattern matches common currency names in place of codes, e.g.
// "100 dollars to euros". Names are resolved through synonyms below.
var namePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(dollars?|euros?|pounds?|yen)\s+(?:to|in|into)\s+(dollars?|euros?|pounds?|yen)`)

// synonyms maps currency names and short forms to ISO codes. Tokens matched
// by codePattern also pass through this table so "yen" resolves to JPY.
var synonyms = map[string]string{
	"dollar":  "USD",
	"dollars": "USD",
	"usd":     "USD",
	"euro":    "EUR",
	"euros":   "EUR",
	"eur":     "EUR",
	"pound":   "GBP",
	"pounds":  "GBP",
	"gbp":     "GBP",
	"yen":     "JPY",
	"jpy":     "JPY",
}

// resolveCode maps a matched currency token to its ISO code: known synonyms
// resolve through the table, everything else is uppercased as-is.
func resolveCode(token string) string {
	if code, ok := synonyms[strings.ToLower(token)]; ok {
		return code
	}
	return strings.ToUpper(token)
}

type match struct {
	start, end int
	req        Request
}

// Extract scans text for conversion phrases and returns one Request per
// non-overlapping match, in left-to-right order of appearance. It is pure
// and idempotent: the same text always yields the same requests.
//
// Zero matches yields an empty slice, signalling that the query should be
// escalated; it is never an error. Conjoined phrases ("... and ...") are
// found by the whole-text scan without any splitting.
func Extract(text string) []Request {
	var matches []match

	for _, idx := range codePattern.FindAllStringSubmatchIndex(text, -1) {
		if m, ok := buildMatch(text, idx); ok {
			matches = append(matches, m)
		}
	}

	// Name matches that overlap a code match are duplicates of it ("yen" is
	// itself three letters); keep the code match.
	for _, idx := range namePattern.FindAllStringSubmatchIndex(text, -1) {
		m, ok := buildMatch(text, idx)
		if !ok {
			continue
		}
		if overlapsAny(m, matches) {
			continue
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	reqs := make([]Request, 0, len(matches))
	for _, m := range matches {
		reqs = append(reqs, m.req)
	}
	return reqs
}

// buildMatch converts a submatch index set into a Request. Matches with an
// unparseable or non-positive amount are ignored rather than errored.
func buildMatch(text string, idx []int) (match, bool) {
	amount, err := strconv.ParseFloat(text[idx[2]:idx[3]], 64)
	if err != nil || amount <= 0 {
		return match{}, false
	}
	return match{
		start: idx[0],
		end:   idx[1],
		req: Request{
			Amount: amount,
			From:   resolveCode(text[idx[4]:idx[5]]),
			To:     resolveCode(text[idx[6]:idx[7]]),
		},
	}, true
}

func overlapsAny(m match, existing []match) bool {
	for _, e := range existing {
		if m.start < e.end && e.start < m.end {
			return true
		}
	}
	return false
}
