// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// RESPONSE CACHE
// =============================================================================

// Entry represents a cached response.
type Entry struct {
	Key        string
	Value      string
	Cost       float64
	InsertedAt time.Time
}

// Stats holds cache statistics.
type Stats struct {
	Hits       int     `json:"hits"`
	Misses     int     `json:"misses"`
	EntryCount int     `json:"entry_count"`
	HitRate    float64 `json:"hit_rate"`
}

// Options configures a ResponseCache.
type Options struct {
	// TTL is the maximum entry age before it is considered stale.
	TTL time.Duration
	// Enabled controls whether lookups can ever hit. When false every
	// Get is a miss and Put is a no-op.
	Enabled bool
}

// DefaultOptions returns a one-hour enabled cache.
func DefaultOptions() Options {
	return Options{TTL: time.Hour, Enabled: true}
}

// ResponseCache is a TTL-keyed cache of prior call results.
// Safe for concurrent use.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	enabled bool

	// Statistics
	hits   int
	misses int

	// now is swappable for tests.
	now func() time.Time
}

// New creates a ResponseCache with the given options.
func New(opts Options) *ResponseCache {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &ResponseCache{
		entries: make(map[string]*Entry),
		ttl:     opts.TTL,
		enabled: opts.Enabled,
		now:     time.Now,
	}
}

// Key returns the deterministic fingerprint for a (query, context) pair.
// Identical inputs always map to the same key; sha256 keeps distinct
// inputs collision-resistant.
func Key(query, context string) string {
	combined := strings.TrimSpace(query) + "\n" + strings.TrimSpace(context)
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value for (query, context) if present and fresh.
// A stale entry is evicted and reported as a miss.
func (c *ResponseCache) Get(query, context string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		c.misses++
		return "", false
	}

	key := Key(query, context)
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}

	if c.now().Sub(entry.InsertedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return "", false
	}

	c.hits++
	return entry.Value, true
}

// Put stores a response, unconditionally overwriting any existing entry
// for the same key.
func (c *ResponseCache) Put(query, value string, cost float64, context string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	key := Key(query, context)
	c.entries[key] = &Entry{
		Key:        key,
		Value:      value,
		Cost:       cost,
		InsertedAt: c.now(),
	}
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Stats returns cache statistics.
func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		EntryCount: len(c.entries),
		HitRate:    hitRate,
	}
}
