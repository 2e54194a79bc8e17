package objstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyStore fails a configured number of calls before succeeding.
type flakyStore struct {
	MemoryStore
	failures int
	calls    int
	failWith error
}

func (f *flakyStore) GetJSON(ctx context.Context, key string, out any) error {
	f.calls++
	if f.calls <= f.failures {
		return f.failWith
	}
	return f.MemoryStore.GetJSON(ctx, key, out)
}

func (f *flakyStore) PutJSON(ctx context.Context, key string, value any) error {
	f.calls++
	if f.calls <= f.failures {
		return f.failWith
	}
	return f.MemoryStore.PutJSON(ctx, key, value)
}

func newFlaky(failures int, failWith error) *flakyStore {
	return &flakyStore{
		MemoryStore: *NewMemory(),
		failures:    failures,
		failWith:    failWith,
	}
}

func TestWithRetry_RecoverFromOneFailure(t *testing.T) {
	ctx := context.Background()
	flaky := newFlaky(1, errors.New("connection reset"))
	store := WithRetry(flaky)

	if err := store.PutJSON(ctx, "k", "v"); err != nil {
		t.Fatalf("PutJSON() = %v, want recovery on retry", err)
	}
	if flaky.calls != 2 {
		t.Errorf("calls = %d, want 2", flaky.calls)
	}
}

func TestWithRetry_GivesUpAfterTwoFailures(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("connection reset")
	flaky := newFlaky(5, transient)
	store := WithRetry(flaky)

	err := store.PutJSON(ctx, "k", "v")
	if !errors.Is(err, transient) {
		t.Fatalf("PutJSON() = %v, want underlying transient error", err)
	}
	if flaky.calls != 2 {
		t.Errorf("calls = %d, want exactly 2 (single retry)", flaky.calls)
	}
}

func TestWithRetry_NotFoundIsNotRetried(t *testing.T) {
	ctx := context.Background()
	flaky := newFlaky(0, nil)
	store := WithRetry(flaky)

	var out string
	err := store.GetJSON(ctx, "absent", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetJSON() = %v, want ErrNotFound", err)
	}
	if flaky.calls != 1 {
		t.Errorf("calls = %d, want 1 (miss must not be retried)", flaky.calls)
	}
}

func TestWithRetry_CancelledContextStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flaky := newFlaky(5, errors.New("connection reset"))
	store := WithRetry(flaky)

	err := store.PutJSON(ctx, "k", "v")
	if err == nil {
		t.Fatal("PutJSON() with cancelled context should fail")
	}
	if flaky.calls > 1 {
		t.Errorf("calls = %d, want at most 1 after cancellation", flaky.calls)
	}
}

func TestWithRetry_SuccessPassesThrough(t *testing.T) {
	ctx := context.Background()
	store := WithRetry(NewMemory())

	if err := store.PutJSONWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("PutJSONWithTTL() error = %v", err)
	}

	var out string
	if err := store.GetJSON(ctx, "k", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out != "v" {
		t.Errorf("GetJSON() = %q, want v", out)
	}

	found, err := store.Exists(ctx, "k")
	if err != nil || !found {
		t.Errorf("Exists() = %v, %v; want true, nil", found, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
