package objstore

import (
	"context"
	"errors"
	"time"
)

const (
	// opTimeout bounds a single backend call.
	opTimeout = 10 * time.Second
	// retryDelay is the pause before the one retry attempt.
	retryDelay = 200 * time.Millisecond
)

// retryingStore decorates a Store with a single retry on transient
// failures. ErrNotFound and caller cancellation are never retried.
type retryingStore struct {
	inner Store
}

// WithRetry wraps s so every network operation is attempted at most twice.
func WithRetry(s Store) Store {
	return &retryingStore{inner: s}
}

func (r *retryingStore) do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := func() error {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		return op(opCtx)
	}

	err := attempt()
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryDelay):
	}

	return attempt()
}

func (r *retryingStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := r.do(ctx, func(ctx context.Context) error {
		var opErr error
		found, opErr = r.inner.Exists(ctx, key)
		return opErr
	})
	return found, err
}

func (r *retryingStore) GetJSON(ctx context.Context, key string, out any) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.GetJSON(ctx, key, out)
	})
}

func (r *retryingStore) PutJSON(ctx context.Context, key string, value any) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.PutJSON(ctx, key, value)
	})
}

func (r *retryingStore) PutJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.PutJSONWithTTL(ctx, key, value, ttl)
	})
}

func (r *retryingStore) Delete(ctx context.Context, key string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.inner.Delete(ctx, key)
	})
}

func (r *retryingStore) Close() error {
	return r.inner.Close()
}
