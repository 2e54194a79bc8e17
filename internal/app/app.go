// Package app provides the main application struct for centralized dependency
// management and lifecycle control of the analysis server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"topikai/config"
	"topikai/internal/analysis"
	"topikai/internal/cache"
	"topikai/internal/gemini"
	"topikai/internal/media"
	"topikai/internal/objstore"
	"topikai/internal/server"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config   *config.Config
	store    objstore.Store
	local    *cache.ResultCache
	pipeline *analysis.Service
	server   *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{config: cfg}

	store, err := objstore.New(objstore.Config{
		Backend: cfg.Cache.Backend,
		S3: objstore.S3Config{
			Endpoint:        cfg.Cache.S3Endpoint,
			AccessKeyID:     cfg.Cache.S3AccessKey,
			SecretAccessKey: cfg.Cache.S3SecretKey,
			Bucket:          cfg.Cache.S3Bucket,
			UseSSL:          cfg.Cache.S3UseSSL,
		},
		RedisURL: cfg.Cache.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}
	app.store = store

	localCapacity := cfg.Cache.LocalCapacity
	if localCapacity <= 0 {
		localCapacity = cache.DefaultCapacity
	}
	localTTL := cfg.Cache.LocalTTL
	if localTTL <= 0 {
		localTTL = cache.DefaultTTL
	}
	app.local = cache.New(localCapacity, localTTL)

	model := gemini.New(gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
	})

	fetcher := media.NewFetcher(media.FetcherConfig{
		MaxAudioBytes: cfg.Media.MaxAudioBytes,
		MaxImageBytes: cfg.Media.MaxImageBytes,
		Timeout:       cfg.Media.FetchTimeout,
	})

	transcoder := media.NewTranscoder(media.TranscoderConfig{
		FFmpegPath: cfg.Media.FFmpegPath,
		Threshold:  cfg.Media.TranscodeThreshold,
	})

	app.pipeline = analysis.NewService(app.store, app.local, model, fetcher, transcoder)

	app.logStartupInfo()

	app.server = server.New(app.pipeline, &server.Config{
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		MetricsEndpoint: cfg.Server.MetricsEndpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	return app, nil
}

// Pipeline returns the analysis service, mainly for tests and tooling.
func (a *App) Pipeline() *analysis.Service {
	return a.pipeline
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first (stop accepting requests), then the object store
// connection. Shutdown is idempotent and safe for repeated calls.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("object store close error", "error", err)
			errs = append(errs, fmt.Errorf("object store close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	model := cfg.Gemini.Model
	if model == "" {
		model = gemini.DefaultModel
	}
	slog.Info("model provider configured", "model", model)

	backend := cfg.Cache.Backend
	if backend == "" {
		backend = "s3"
	}
	slog.Info("cache configured",
		"backend", backend,
		"local_capacity", a.local.Cap(),
	)

	if cfg.Server.MetricsEnabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Server.MetricsEndpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
}
