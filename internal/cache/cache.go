// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides the engine's TTL memoization: whole pipeline
// results (short TTL), semantic-classifier responses (longer TTL,
// content-addressed keys), and the active scoring settings. Caches are
// constructed and injected, never package globals, so tests get a fresh
// cache per case.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a TTL-bound key/value store safe for concurrent use. A miss
// being filled blocks other fetchers of the same key until the fill
// completes, so at most one upstream fetch is in flight per key.
type Cache[V any] struct {
	ttl time.Duration

	mu       sync.Mutex
	entries  map[string]entry[V]
	inflight map[string]*call[V]
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// New returns an empty cache whose entries expire ttl after insertion.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:      ttl,
		entries:  make(map[string]entry[V]),
		inflight: make(map[string]*call[V]),
	}
}

// Get returns the live entry for key, expiring it on read if stale.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Since(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh timestamp.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
}

// GetOrFill returns the cached value for key, or runs fill to produce and
// store it. Concurrent callers for the same key wait on the single
// in-flight fill rather than duplicating upstream work. The second return
// reports whether the value came from cache. Fill errors are returned to
// every waiter and nothing is stored.
func (c *Cache[V]) GetOrFill(ctx context.Context, key string, fill func(context.Context) (V, error)) (V, bool, error) {
	var zero V

	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, true, nil
	}
	if inflight, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.val, inflight.err == nil, inflight.err
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	cl.val, cl.err = fill(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.entries[key] = entry[V]{value: cl.val, storedAt: time.Now()}
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.val, false, cl.err
}

// Invalidate drops every entry. Called when the underlying data is
// refreshed; in-flight fills are unaffected.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Stats describes the cache's current population.
type Stats struct {
	Entries     int           `json:"entries" yaml:"entries"`
	LiveEntries int           `json:"live_entries" yaml:"live_entries"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
}

// Stats returns entry counts without mutating the cache.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := 0
	for _, e := range c.entries {
		if time.Since(e.storedAt) < c.ttl {
			live++
		}
	}
	return Stats{Entries: len(c.entries), LiveEntries: live, TTL: c.ttl}
}

// Key hashes an ordered list of parts into a stable cache key.
func Key(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}
