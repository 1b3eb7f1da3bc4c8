package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cambist-ai/cambist/config"
)

// rateByTarget serves a fixed unit rate per target code, scaled by amount,
// with a small delay so batch ordering is exercised under real concurrency.
func rateByTarget(t *testing.T, rates map[string]float64) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := r.URL.Query().Get("to")
		amount := r.URL.Query().Get("amount")
		rate, ok := rates[to]
		if !ok {
			http.Error(w, "unknown", http.StatusNotFound)
			return
		}
		var a float64
		fmt.Sscanf(amount, "%f", &a)
		time.Sleep(5 * time.Millisecond)
		fmt.Fprintf(w, `{"rates": {"%s": %f}, "date": "2024-06-03"}`, to, rate*a)
	}))
	t.Cleanup(srv.Close)

	return NewClient(config.RatesConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, zaptest.NewLogger(t))
}

func TestConvertAllPreservesOrder(t *testing.T) {
	client := rateByTarget(t, map[string]float64{"EUR": 0.85, "JPY": 150.0, "CHF": 0.9})

	reqs := []Request{
		{Amount: 100, From: "USD", To: "EUR"},
		{Amount: 50, From: "GBP", To: "JPY"},
		{Amount: 25, From: "USD", To: "CHF"},
	}

	results := ConvertAll(context.Background(), client, reqs)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, reqs[i], r.Request, "slot %d must hold its own request", i)
		assert.False(t, r.Failed())
	}
	assert.Equal(t, 85.0, results[0].ConvertedAmount)
	assert.Equal(t, 7500.0, results[1].ConvertedAmount)
	assert.Equal(t, 22.5, results[2].ConvertedAmount)
}

func TestConvertAllIsolatesFailures(t *testing.T) {
	client := rateByTarget(t, map[string]float64{"EUR": 0.85, "JPY": 150.0})

	reqs := []Request{
		{Amount: 100, From: "USD", To: "EUR"},
		{Amount: 50, From: "USD", To: "XXX"}, // engineered failure
		{Amount: 25, From: "GBP", To: "JPY"},
	}

	results := ConvertAll(context.Background(), client, reqs)

	require.Len(t, results, 3)
	assert.False(t, results[0].Failed())
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Err, "XXX")
	assert.False(t, results[2].Failed(), "failure in one slot must not abort the rest")
}

func TestConvertAllSingleRequest(t *testing.T) {
	client := rateByTarget(t, map[string]float64{"EUR": 0.85})

	results := ConvertAll(context.Background(), client, []Request{
		{Amount: 100, From: "USD", To: "EUR"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, 85.0, results[0].ConvertedAmount)
}

func TestConvertAllEmpty(t *testing.T) {
	client := rateByTarget(t, nil)
	assert.Nil(t, ConvertAll(context.Background(), client, nil))
}

func TestConvertAllManyConcurrent(t *testing.T) {
	client := rateByTarget(t, map[string]float64{"EUR": 0.85})

	var reqs []Request
	for i := 1; i <= 20; i++ {
		reqs = append(reqs, Request{Amount: float64(i), From: "USD", To: "EUR"})
	}

	results := ConvertAll(context.Background(), client, reqs)

	require.Len(t, results, 20)
	for i, r := range results {
		require.False(t, r.Failed())
		assert.Equal(t, reqs[i].Amount, r.Amount, "slot %d must hold its own result", i)
	}
}
