// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ratelimit.go - Sliding-window rate limiting per identity.
package security

import (
	"sync"
	"time"
)

// =============================================================================
// RATE LIMITER
// =============================================================================

// rateWindow is the sliding 60-second window of request timestamps.
const rateWindow = 60 * time.Second

// RateLimiter enforces a per-identity request ceiling over a trailing
// 60-second window. Windows are created lazily per identity and pruned on
// each check so per-identity memory stays bounded.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int

	// now is swappable for tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per minute
// per identity.
func NewRateLimiter(limit int) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		now:     time.Now,
	}
}

// Allow checks and records a request for identity. It prunes timestamps
// outside the window, rejects when the window is full, and records the
// timestamp otherwise. Check-and-record is atomic per identity.
func (r *RateLimiter) Allow(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-rateWindow)

	window := r.windows[identity]
	pruned := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= r.limit {
		r.windows[identity] = pruned
		return false
	}

	r.windows[identity] = append(pruned, now)
	return true
}

// Limit returns the configured per-minute ceiling.
func (r *RateLimiter) Limit() int {
	return r.limit
}
