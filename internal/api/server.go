package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/cohort-retention/internal/config"
)

// Server serves retention payloads to polling dashboards
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a server whose widget endpoints run pipelines through runner
func NewServer(cfg config.ServerConfig, runner Runner) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(NewHandlers(runner), cfg.AllowedOrigins),
	}
}

// ListenAndServe starts the HTTP server on addr
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Each widget request makes up to two sequential report calls
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
