// Package api is the HTTP surface: chat (plain and SSE streaming), session
// inspection and purge, and health endpoints, served with echo.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/airsift/airsift/pkg/agent"
	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/history"
)

// Server hosts the HTTP API over the agent.
type Server struct {
	cfg     *config.Config
	agent   *agent.Agent
	archive *history.Store // nil when the archive is disabled

	echo    *echo.Echo
	httpSrv *http.Server
	started time.Time
}

// NewServer creates the server and registers all routes.
func NewServer(cfg *config.Config, ag *agent.Agent, archive *history.Store) *Server {
	s := &Server{
		cfg:     cfg,
		agent:   ag,
		archive: archive,
		started: time.Now(),
	}

	e := echo.New()
	e.Use(securityHeaders())
	e.Use(corsMiddleware(cfg.System.AllowedOrigins))
	e.Use(bodyLimit(maxRequestBytes))
	e.Use(requestLogger())

	e.GET("/health", s.healthHandler)

	v1 := e.Group("/api/v1")
	v1.POST("/chat", s.chatHandler)
	v1.POST("/chat/stream", s.streamChatHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
	v1.DELETE("/sessions/:id", s.deleteSessionHandler)

	s.echo = e
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP server listening", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
