package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cambist-ai/cambist/config"
)

// supported is the allow-list of currency codes the client will price.
// Codes outside this set fail fast without a network call.
var supported = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "AUD": true,
	"CAD": true, "CHF": true, "CNY": true, "INR": true, "NZD": true,
	"SGD": true, "HKD": true, "SEK": true, "KRW": true, "NOK": true,
	"MXN": true, "BRL": true, "PLN": true,
}

// earliestRateDate is the first date the rate service has data for.
const earliestRateDate = "1999-01-04"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Client resolves exchange rates from a Frankfurter-style HTTP service.
//
// Convert never returns a Go error: per-request failures are Result values so
// the batch engine can aggregate them without special cases. The supporting
// lookups (SupportedCurrencies, Historical) return errors in the usual way.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	// group deduplicates concurrent supported-currency fetches; the list is
	// identical for all callers so one upstream call can serve them all.
	group singleflight.Group
}

// NewClient creates a rate client from configuration. A zero timeout falls
// back to 30 seconds.
func NewClient(cfg config.RatesConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// latestResponse is the rate service payload for /latest and /{date}.
type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
	Date  string             `json:"date"`
}

// Convert prices a single request. Validation failures (bad amount, code
// outside the allow-list) surface their specific message and never reach the
// network. Upstream failures collapse into a generic "error converting X to Y"
// message; the transport detail is logged only.
//
// An identity pair (From == To) short-circuits to rate 1.0 without a network
// call: the external service has nothing to add to a trivial identity.
func (c *Client) Convert(ctx context.Context, req Request) Result {
	if err := req.Validate(); err != nil {
		return Failure(req, err.Error())
	}
	if !IsSupported(req.From) {
		return Failure(req, fmt.Sprintf("Unsupported source currency: %s", req.From))
	}
	if !IsSupported(req.To) {
		return Failure(req, fmt.Sprintf("Unsupported target currency: %s", req.To))
	}

	if req.From == req.To {
		return Result{
			Request:         req,
			ConvertedAmount: round2(req.Amount),
			Rate:            1.0,
			Date:            time.Now().Format("2006-01-02"),
		}
	}

	c.logger.Info("converting currency",
		zap.Float64("amount", req.Amount),
		zap.String("from", req.From),
		zap.String("to", req.To),
	)

	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(req.Amount, 'f', -1, 64))
	q.Set("from", req.From)
	q.Set("to", req.To)

	var payload latestResponse
	if err := c.getJSON(ctx, c.baseURL+"/latest?"+q.Encode(), &payload); err != nil {
		c.logger.Error("currency conversion failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err),
		)
		return Failure(req, fmt.Sprintf("Error converting %s to %s", req.From, req.To))
	}

	converted, ok := payload.Rates[req.To]
	if !ok {
		c.logger.Error("rate missing from payload",
			zap.String("to", req.To),
		)
		return Failure(req, fmt.Sprintf("Error converting %s to %s", req.From, req.To))
	}

	date := payload.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return Result{
		Request:         req,
		ConvertedAmount: round2(converted),
		Rate:            round6(converted / req.Amount),
		Date:            date,
	}
}

// SupportedCurrencies returns the code→display-name mapping the rate service
// advertises. Concurrent callers share a single upstream fetch.
func (c *Client) SupportedCurrencies(ctx context.Context) (map[string]string, error) {
	v, err, _ := c.group.Do("currencies", func() (interface{}, error) {
		var payload map[string]string
		if err := c.getJSON(ctx, c.baseURL+"/currencies", &payload); err != nil {
			return nil, fmt.Errorf("fetch supported currencies: %w", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// Historical returns the unit exchange rate for a currency pair on a past
// date. The date must be YYYY-MM-DD, not in the future, and not before the
// service's earliest available date.
func (c *Client) Historical(ctx context.Context, date, from, to string) (HistoricalRate, error) {
	from = NormalizeCode(from)
	to = NormalizeCode(to)

	if err := validateRateDate(date); err != nil {
		return HistoricalRate{}, err
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, date, q.Encode())

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		c.logger.Error("historical rate fetch failed", zap.Error(err))
		return HistoricalRate{}, fmt.Errorf("historical rate service error")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		// The service rejects dates and pairs it cannot serve with 400;
		// treat that as caller error, not an outage.
		return HistoricalRate{}, fmt.Errorf("invalid historical rate request for %s to %s on %s", from, to, date)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("historical rate service error",
			zap.Int("status", resp.StatusCode),
		)
		return HistoricalRate{}, fmt.Errorf("historical rate service error")
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("historical rate payload malformed", zap.Error(err))
		return HistoricalRate{}, fmt.Errorf("historical rate service error")
	}

	rate, ok := payload.Rates[to]
	if !ok {
		return HistoricalRate{}, fmt.Errorf("exchange rate not available for %s to %s on %s", from, to, date)
	}

	return HistoricalRate{
		Date: payload.Date,
		From: from,
		To:   to,
		Rate: rate,
	}, nil
}

func validateRateDate(date string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD: %q", date)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid date: %q", date)
	}
	if parsed.After(time.Now()) {
		return fmt.Errorf("cannot get exchange rates for future dates: %s", date)
	}
	floor, _ := time.Parse("2006-01-02", earliestRateDate)
	if parsed.Before(floor) {
		return fmt.Errorf("date cannot be earlier than %s: %s", earliestRateDate, date)
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// getJSON performs a GET and decodes a 2xx JSON body into out. Non-2xx
// statuses and decode failures are both errors.
func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsSupported reports whether a code is in the conversion allow-list.
func IsSupported(code string) bool {
	return supported[code]
}
