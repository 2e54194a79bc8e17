package app

import (
	"context"
	"testing"

	"topikai/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{APIKey: "test-key"},
		Cache:  config.CacheConfig{Backend: "memory"},
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("New(nil config) should fail")
	}
}

func TestNewAndShutdown(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.Pipeline() == nil {
		t.Fatal("pipeline should be initialized")
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	// Second call is a no-op.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("repeated Shutdown() error = %v", err)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.Backend = "etcd"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("New() with unknown cache backend should fail")
	}
}
