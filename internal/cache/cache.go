// Package cache implements the in-process L1 result cache.
//
// The cache is bounded by entry count with LRU eviction, and every entry
// carries a fixed TTL independent of eviction order. It is process-lifetime
// state only; the durable source of truth is the L2 object store.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultCapacity bounds the number of cached results.
	DefaultCapacity = 100
	// DefaultTTL is how long an entry stays servable after being set.
	DefaultTTL = time.Hour
)

// Stats holds hit/miss/eviction counters for observability.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// ResultCache is a concurrency-safe LRU cache with per-entry expiry.
type ResultCache struct {
	capacity int
	ttl      time.Duration

	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List

	hits      int64
	misses    int64
	evictions int64

	// now is swappable for expiry tests.
	now func() time.Time
}

// New creates a ResultCache. Non-positive capacity or TTL fall back to the
// package defaults.
func New(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key, or ok=false on a miss. Expired
// entries are removed on access and reported as misses.
func (c *ResultCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if c.now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	c.hits++
	return ent.value, true
}

// Set stores value under key, resetting its TTL. The least recently used
// entry is evicted when the cache is full.
func (c *ResultCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	for c.eviction.Len() >= c.capacity {
		c.evictOldest()
	}

	elem := c.eviction.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
}

// Delete removes key from the cache if present.
func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
}

// Len reports the number of live entries, expired ones included until read.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Cap reports the configured entry capacity.
func (c *ResultCache) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.eviction.Len(),
	}
}

// evictOldest removes the least recently used entry (lock must be held).
func (c *ResultCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.evictions++
	}
}

// removeElement unlinks an element from both structures (lock must be held).
func (c *ResultCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}
