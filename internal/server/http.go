package server

import (
	"context"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"topikai/config"
	"topikai/internal/observability"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   int64  // Max request body size in bytes (default: 2MB)
}

// New creates a new HTTP server
func New(pipeline Pipeline, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	handler := NewHandler(pipeline)

	// Determine metrics path
	metricsPath := "/metrics"
	if cfg != nil && cfg.MetricsEnabled && cfg.MetricsEndpoint != "" {
		// Normalize path to prevent traversal attacks
		metricsPath = path.Clean(cfg.MetricsEndpoint)
	}

	// Global middleware stack (order matters)
	e.Use(RequestID())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())

	// Body size limit (default: 2MB); requests carry text and URLs, never media
	bodySizeLimit := config.DefaultBodySizeLimit
	if cfg != nil && cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET(metricsPath, echo.WrapHandler(observability.Handler()))
	}

	// API routes
	e.POST("/v1/analysis/question", handler.AnalyzeQuestion)
	e.POST("/v1/analysis/sentence", handler.AnalyzeSentence)
	e.POST("/v1/transcripts", handler.GenerateTranscript)
	e.GET("/v1/transcripts/:episodeID", handler.GetTranscript)
	e.DELETE("/v1/transcripts/:episodeID", handler.DeleteTranscript)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
