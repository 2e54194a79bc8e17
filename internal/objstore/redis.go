package objstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists cache entries as Redis string values. TTLs use
// native key expiry; the envelope TTL is kept as well so entries stay
// portable between backends.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to Redis using a connection URL
// (e.g. "redis://:password@host:6379/0") and verifies the connection.
func NewRedis(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("object store connected", "backend", "redis", "addr", opts.Addr)

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisStore) GetJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := unpackEntry(data, out, time.Now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) PutJSON(ctx context.Context, key string, value any) error {
	return r.put(ctx, key, value, 0)
}

func (r *RedisStore) PutJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return r.put(ctx, key, value, ttl)
}

func (r *RedisStore) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := packEntry(key, value, ttl, time.Now())
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
