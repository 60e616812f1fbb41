// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resilience

import (
	"sync"
	"time"
)

// =============================================================================
// CIRCUIT STATES
// =============================================================================

// CircuitState is the state of a per-endpoint circuit.
type CircuitState string

const (
	// CircuitClosed lets calls pass through normally.
	CircuitClosed CircuitState = "closed"
	// CircuitOpen short-circuits calls until the cool-down elapses.
	CircuitOpen CircuitState = "open"
	// CircuitHalfOpen admits a single trial call.
	CircuitHalfOpen CircuitState = "half-open"
)

// CircuitSnapshot is an observable view of one endpoint's circuit.
type CircuitSnapshot struct {
	Endpoint    string       `json:"endpoint"`
	State       CircuitState `json:"state"`
	Failures    int          `json:"failures"`
	LastFailure time.Time    `json:"last_failure,omitempty"`
}

// =============================================================================
// BREAKER
// =============================================================================

type circuit struct {
	state       CircuitState
	failures    int
	lastFailure time.Time
}

// Breaker tracks circuit state per endpoint identifier.
// Records are created lazily on first failure and persist for the process
// lifetime. Safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	circuits  map[string]*circuit
	threshold int
	cooldown  time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewBreaker creates a breaker that opens a circuit after threshold
// consecutive failures and allows a half-open trial after cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Breaker{
		circuits:  make(map[string]*circuit),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// get returns the circuit for endpoint, creating a closed one if needed.
// Caller must hold b.mu.
func (b *Breaker) get(endpoint string) *circuit {
	c, ok := b.circuits[endpoint]
	if !ok {
		c = &circuit{state: CircuitClosed}
		b.circuits[endpoint] = c
	}
	return c
}

// IsOpen reports whether calls to endpoint should be short-circuited.
// An open circuit whose cool-down has elapsed transitions to half-open
// and is reported as not open, admitting exactly the next attempt.
func (b *Breaker) IsOpen(endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(endpoint)
	if c.state != CircuitOpen {
		return false
	}
	if b.now().Sub(c.lastFailure) > b.cooldown {
		c.state = CircuitHalfOpen
		return false
	}
	return true
}

// RecordFailure increments the failure count for endpoint, opening the
// circuit at the threshold. A half-open trial failure re-opens immediately.
func (b *Breaker) RecordFailure(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(endpoint)
	c.failures++
	c.lastFailure = b.now()

	if c.state == CircuitHalfOpen || c.failures >= b.threshold {
		c.state = CircuitOpen
	}
}

// RecordSuccess resets the failure count and closes the circuit.
func (b *Breaker) RecordSuccess(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(endpoint)
	c.failures = 0
	c.state = CircuitClosed
}

// State returns the current state for endpoint.
func (b *Breaker) State(endpoint string) CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.get(endpoint).state
}

// Snapshot returns the observable state of every known circuit.
func (b *Breaker) Snapshot() []CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]CircuitSnapshot, 0, len(b.circuits))
	for endpoint, c := range b.circuits {
		out = append(out, CircuitSnapshot{
			Endpoint:    endpoint,
			State:       c.state,
			Failures:    c.failures,
			LastFailure: c.lastFailure,
		})
	}
	return out
}
