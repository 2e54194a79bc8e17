package objstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for tests and single-process
// development runs. Entries pass through the same envelope codec as the
// network backends so codec behavior is exercised everywhere.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) GetJSON(_ context.Context, key string, out any) error {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	err := unpackEntry(data, out, time.Now())
	if err == ErrNotFound {
		m.mu.Lock()
		delete(m.objects, key)
		m.mu.Unlock()
		return ErrNotFound
	}
	return err
}

func (m *MemoryStore) PutJSON(ctx context.Context, key string, value any) error {
	return m.put(key, value, 0)
}

func (m *MemoryStore) PutJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.put(key, value, ttl)
}

func (m *MemoryStore) put(key string, value any, ttl time.Duration) error {
	data, err := packEntry(key, value, ttl, time.Now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored objects, expired entries included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
