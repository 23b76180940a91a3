// Package api exposes the classification engine and query service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/classify/internal/backends"
	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/internal/orchestrator"
	"github.com/dyluth/classify/internal/query"
)

// APIKeyHeader carries the shared secret on every protected request.
const APIKeyHeader = "X-Api-Key"

const (
	maxRequestBody  = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// Server handles HTTP requests for the classify API.
type Server struct {
	engine *orchestrator.Engine
	query  *query.Service
	apiKey string
	checks []backends.Check
	logger *slog.Logger
}

// NewServer creates a server. apiKey must not be empty; checks are probed by
// GET /health.
func NewServer(engine *orchestrator.Engine, q *query.Service, apiKey string, checks []backends.Check, logger *slog.Logger) (*Server, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	return &Server{
		engine: engine,
		query:  q,
		apiKey: apiKey,
		checks: checks,
		logger: logging.Component(logger, "api"),
	}, nil
}

// Handler returns the routed handler with logging and authentication applied.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /classify", s.classify)
	protected.HandleFunc("GET /tags", s.listTags)
	protected.HandleFunc("GET /content", s.listContent)
	protected.HandleFunc("GET /content/{id}", s.getContent)
	protected.HandleFunc("GET /content/{id}/text", s.getContentText)
	protected.HandleFunc("DELETE /content/{id}", s.deleteContent)
	protected.HandleFunc("POST /reindex", s.reindex)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("/", s.requireAPIKey(protected))

	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, waiting for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Classification waits on fetch plus model calls
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
