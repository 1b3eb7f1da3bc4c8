package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cambist-ai/cambist/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.RatesConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	return client, srv
}

func TestConvertSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("amount"))
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "EUR", r.URL.Query().Get("to"))
		fmt.Fprint(w, `{"rates": {"EUR": 85.0}, "date": "2024-06-03"}`)
	}))

	res := client.Convert(context.Background(), Request{Amount: 100, From: "USD", To: "EUR"})

	require.False(t, res.Failed())
	assert.Equal(t, 85.0, res.ConvertedAmount)
	assert.Equal(t, 0.85, res.Rate)
	assert.Equal(t, "2024-06-03", res.Date)
}

func TestConvertRoundsRate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates": {"EUR": 85.123456789}, "date": "2024-06-03"}`)
	}))

	res := client.Convert(context.Background(), Request{Amount: 100, From: "USD", To: "EUR"})

	require.False(t, res.Failed())
	assert.Equal(t, 85.12, res.ConvertedAmount)
	assert.Equal(t, 0.851235, res.Rate)
}

func TestConvertIdentityWithoutNetwork(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	res := client.Convert(context.Background(), Request{Amount: 100, From: "USD", To: "USD"})

	require.False(t, res.Failed())
	assert.Equal(t, 100.0, res.ConvertedAmount)
	assert.Equal(t, 1.0, res.Rate)
	assert.NotEmpty(t, res.Date)
	assert.Zero(t, atomic.LoadInt32(&calls), "identity conversion must not hit the network")
}

func TestConvertValidationFailuresSkipNetwork(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{
			name:    "non-positive amount",
			req:     Request{Amount: 0, From: "USD", To: "EUR"},
			wantErr: "amount must be positive",
		},
		{
			name:    "unsupported source",
			req:     Request{Amount: 100, From: "XXX", To: "EUR"},
			wantErr: "Unsupported source currency: XXX",
		},
		{
			name:    "unsupported target",
			req:     Request{Amount: 100, From: "USD", To: "ZAR"},
			wantErr: "Unsupported target currency: ZAR",
		},
		{
			name:    "lowercase code rejected",
			req:     Request{Amount: 100, From: "usd", To: "EUR"},
			wantErr: "source currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := client.Convert(context.Background(), tt.req)
			require.True(t, res.Failed())
			assert.Contains(t, res.Err, tt.wantErr)
		})
	}

	assert.Zero(t, atomic.LoadInt32(&calls), "validation failures must not hit the network")
}

func TestConvertUpstreamFailureIsGeneric(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json")
			},
		},
		{
			name: "rate missing from payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"rates": {}, "date": "2024-06-03"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			res := client.Convert(context.Background(), Request{Amount: 100, From: "USD", To: "EUR"})

			require.True(t, res.Failed())
			// Transport detail stays in the logs; callers see the generic form.
			assert.Equal(t, "Error converting USD to EUR", res.Err)
		})
	}
}

func TestSupportedCurrencies(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/currencies", r.URL.Path)
		time.Sleep(10 * time.Millisecond)
		fmt.Fprint(w, `{"USD": "United States Dollar", "EUR": "Euro"}`)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			currencies, err := client.SupportedCurrencies(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "Euro", currencies["EUR"])
		}()
	}
	wg.Wait()

	// Concurrent callers share one upstream fetch.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHistorical(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024-01-15", r.URL.Path)
		fmt.Fprint(w, `{"rates": {"EUR": 0.91}, "date": "2024-01-15"}`)
	}))

	hr, err := client.Historical(context.Background(), "2024-01-15", "usd", "eur")

	require.NoError(t, err)
	assert.Equal(t, HistoricalRate{Date: "2024-01-15", From: "USD", To: "EUR", Rate: 0.91}, hr)
}

func TestHistoricalDateValidation(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	tests := []struct {
		name string
		date string
		want string
	}{
		{"malformed date", "15-01-2024", "invalid date format"},
		{"future date", future, "future dates"},
		{"before service floor", "1998-12-31", "earlier than 1999-01-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Historical(context.Background(), tt.date, "USD", "EUR")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.Zero(t, atomic.LoadInt32(&calls), "invalid dates must not hit the network")
}

func TestHistoricalBadRequestVsServiceError(t *testing.T) {
	t.Run("400 surfaces as validation-style error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad pair", http.StatusBadRequest)
		}))

		_, err := client.Historical(context.Background(), "2024-01-15", "USD", "EUR")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid historical rate request")
	})

	t.Run("other errors surface as generic service error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))

		_, err := client.Historical(context.Background(), "2024-01-15", "USD", "EUR")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "historical rate service error")
	})
}
