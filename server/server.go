// Package server assembles the HTTP surface of the assistant: routing,
// middleware, and the server lifecycle.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cambist-ai/cambist/config"
	"github.com/cambist-ai/cambist/errors"
	"github.com/cambist-ai/cambist/server/handlers"
	"github.com/cambist-ai/cambist/server/metrics"
	"github.com/cambist-ai/cambist/server/middleware"
)

// Router handles HTTP routing
type Router struct {
	router chi.Router
}

// NewRouter creates a new router with the full middleware stack mounted.
func NewRouter(chat *handlers.ChatHandler, conversations *handlers.ConversationHandler,
	m *metrics.Metrics, logger *zap.Logger) *Router {
	r := chi.NewRouter()

	// Add our middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTimer)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.PrometheusMetrics(m))
	r.Use(middleware.CORS)

	// Mount routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(m))
		// Longer than the upstream LLM timeout so slow escalations finish.
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/v1/chat/completions", chat.ServeHTTP)
		r.Get("/v1/conversations/{id}", conversations.Get)
		r.Post("/v1/conversations/{id}/clear", conversations.Clear)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, errors.NewNotFoundError(middleware.GetRequestID(r.Context()), "Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.ErrorWithType(w, "Method not allowed", errors.ValidationError, http.StatusMethodNotAllowed)
	})

	return &Router{router: r}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start starts the server and blocks until shutdown
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
