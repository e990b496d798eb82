// Package cache provides a keyed request cache with a freshness window,
// idempotent invalidation, and in-flight deduplication. Server data is
// cached per key; invalidation marks the key stale so the next read is
// forced to refetch instead of trusting a locally patched copy.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/quickplate/ordering-client/internal/metrics"
)

// Fetcher loads the authoritative value for a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Cache is a keyed request cache. Safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	name    string
	ttl     time.Duration
	entries map[string]*entry[T]
}

type entry[T any] struct {
	value     T
	hasValue  bool
	fetchedAt time.Time
	// version is bumped on every invalidation. A fetch started before an
	// invalidation must not overwrite the entry afterwards: it would
	// resurrect data the invalidation declared stale.
	version  uint64
	inflight *call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// New creates a cache whose entries stay fresh for ttl after a fetch.
func New[T any](name string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]*entry[T]),
	}
}

// Get returns the cached value for key when it is within the freshness
// window, otherwise fetches it. Concurrent gets for the same key share one
// fetch. The ctx only cancels this caller's wait, never the shared fetch.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}

	if e.hasValue && time.Since(e.fetchedAt) < c.ttl {
		val := e.value
		c.mu.Unlock()
		metrics.ObserveCacheLookup(c.name, "hit")
		return val, nil
	}

	if e.inflight != nil {
		cl := e.inflight
		c.mu.Unlock()
		metrics.ObserveCacheLookup(c.name, "join")
		return c.wait(ctx, cl)
	}

	cl := &call[T]{done: make(chan struct{})}
	e.inflight = cl
	startVersion := e.version
	c.mu.Unlock()
	metrics.ObserveCacheLookup(c.name, "miss")

	go func() {
		val, err := fetch(context.WithoutCancel(ctx))

		c.mu.Lock()
		if e.inflight == cl {
			e.inflight = nil
		}
		if err == nil && e.version == startVersion {
			e.value = val
			e.hasValue = true
			e.fetchedAt = time.Now()
		}
		c.mu.Unlock()

		cl.val, cl.err = val, err
		close(cl.done)
	}()

	return c.wait(ctx, cl)
}

func (c *Cache[T]) wait(ctx context.Context, cl *call[T]) (T, error) {
	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the cached value for key regardless of freshness. Views use
// it to keep rendering the previous state while a refetch is in flight.
func (c *Cache[T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Fresh reports whether key holds a value within the freshness window.
func (c *Cache[T]) Fresh(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.hasValue && time.Since(e.fetchedAt) < c.ttl
}

// Invalidate marks key stale. The cached value survives for Peek, but the
// next Get refetches, and any fetch already in flight will not be stored.
// Invalidating an absent or already-stale key is a no-op beyond bumping the
// version, so concurrent triggers (poll plus push) are harmless.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.version++
	e.fetchedAt = time.Time{}
}

// InvalidateAll marks every key stale.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.version++
		e.fetchedAt = time.Time{}
	}
}

// Drop removes key entirely, including the value held for Peek.
func (c *Cache[T]) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry. Used on logout so no user data survives the
// session.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
}
