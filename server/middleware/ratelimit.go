package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cambist-ai/cambist/errors"
	"github.com/cambist-ai/cambist/server/metrics"
)

type rateLimiters struct {
	visitors map[string]*rate.Limiter
	mu       sync.RWMutex
}

var (
	limiters = &rateLimiters{
		visitors: make(map[string]*rate.Limiter),
	}
)

func (l *rateLimiters) GetOrCreate(ip string, create func() *rate.Limiter) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.visitors[ip]
	if !exists {
		limiter = create()
		l.visitors[ip] = limiter
	}

	return limiter
}

// RateLimit middleware implements rate limiting per IP address
func RateLimit(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if idx := strings.LastIndex(ip, ":"); idx != -1 {
				ip = ip[:idx] // Strip port number if present
			}

			limiter := limiters.GetOrCreate(ip, func() *rate.Limiter {
				return rate.NewLimiter(rate.Every(time.Second), 10)
			})

			if !limiter.Allow() {
				if m != nil {
					m.RateLimitHits.WithLabelValues(ip).Inc()
				}
				errors.WriteError(w, errors.NewRateLimitError(GetRequestID(r.Context()), 1))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ResetRateLimiters resets all rate limiters. Only used for testing.
func ResetRateLimiters() {
	limiters.mu.Lock()
	defer limiters.mu.Unlock()
	limiters.visitors = make(map[string]*rate.Limiter)
}
