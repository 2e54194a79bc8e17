package objstore

import "fmt"

// Config selects and configures the L2 backend.
type Config struct {
	// Backend is "s3" (default), "redis", or "memory".
	Backend  string
	S3       S3Config
	RedisURL string
}

// New builds the configured Store wrapped with single-retry semantics.
func New(cfg Config) (Store, error) {
	var (
		inner Store
		err   error
	)
	switch cfg.Backend {
	case "", "s3":
		inner, err = NewS3(cfg.S3)
	case "redis":
		inner, err = NewRedis(cfg.RedisURL)
	case "memory":
		inner = NewMemory()
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(inner), nil
}
