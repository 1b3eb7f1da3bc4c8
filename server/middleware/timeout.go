package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cambist-ai/cambist/errors"
)

// timeoutWriter serializes access to the underlying ResponseWriter between
// the handler goroutine and the timeout branch. Once the deadline fires and
// the 504 is sent, any late writes from the handler are dropped.
type timeoutWriter struct {
	w http.ResponseWriter

	mu       sync.Mutex
	written  bool
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.w.Header()
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.written = true
	return tw.w.Write(b)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return
	}
	tw.written = true
	tw.w.WriteHeader(code)
}

// timeout marks the writer as timed out and reports whether the caller may
// still write the timeout response. Returns false if the handler already
// started a response.
func (tw *timeoutWriter) timeout() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
	return !tw.written
}

// Timeout middleware adds a timeout to the request context
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutWriter{w: w}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				// After timeout() returns true the handler can no longer
				// reach the underlying writer, so writing here is safe.
				if tw.timeout() {
					errors.WriteError(tw.w, errors.NewError(
						errors.InternalError,
						"Request timeout",
						http.StatusGatewayTimeout,
						GetRequestID(r.Context()),
						map[string]interface{}{
							"timeout": timeout.String(),
						},
						ctx.Err(),
					))
				}
				return
			}
		})
	}
}
