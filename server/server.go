// Package server exposes the query pipeline and the feedback store
// over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/adspilot/ai/agents/orchestrator"
	"github.com/hrygo/adspilot/internal/profile"
	"github.com/hrygo/adspilot/store"
)

// maxConcurrentQueries bounds in-flight LLM pipelines. Each query can
// fan out into several model and API calls, so the cap is small.
const maxConcurrentQueries = 8

type Server struct {
	echo         *echo.Echo
	profile      *profile.Profile
	store        *store.Store
	orchestrator *orchestrator.Orchestrator
	querySem     *semaphore.Weighted
}

// NewServer builds the HTTP server. registry may be nil to skip the
// Prometheus endpoint.
func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, orch *orchestrator.Orchestrator, registry *prometheus.Registry) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI: true, LogStatus: true, LogMethod: true, LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 120 * time.Second,
	}))

	s := &Server{
		echo:         e,
		profile:      profile,
		store:        store,
		orchestrator: orch,
		querySem:     semaphore.NewWeighted(maxConcurrentQueries),
	}

	e.GET("/healthz", s.healthz)
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/query", s.handleQuery)
	apiV1.GET("/metrics", s.handleQueryMetrics)
	apiV1.DELETE("/sessions/:id", s.handleClearSession)

	apiV1.POST("/feedback", s.handleCreateFeedback)
	apiV1.GET("/feedback", s.handleListFeedback)
	apiV1.GET("/feedback/stats", s.handleFeedbackStats)
	apiV1.GET("/feedback/:id", s.handleGetFeedback)
	apiV1.PATCH("/feedback/:id", s.handleUpdateFeedback)
	apiV1.DELETE("/feedback/:id", s.handleDeleteFeedback)

	return s, nil
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.profile.Version,
	})
}

// Start serves until the listener fails or the server is shut down.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server listening", "addr", addr, "mode", s.profile.Mode)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}
