// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrCircuitOpen is returned when an endpoint's circuit is open and no
// fallback was supplied. Non-retryable within the current call.
var ErrCircuitOpen = errors.New("circuit open")

// =============================================================================
// POLICY
// =============================================================================

// Policy configures retry and circuit-breaker behavior.
type Policy struct {
	// MaxRetries is the maximum number of attempts per call.
	MaxRetries int
	// BaseDelay scales the escalating backoff schedule (1,2,4,8,16 x BaseDelay).
	BaseDelay time.Duration
	// JitterFraction is the maximum random addition as a fraction of the delay.
	JitterFraction float64
	// BreakerThreshold is the consecutive-failure count that opens a circuit.
	BreakerThreshold int
	// BreakerCooldown is how long an open circuit waits before half-open.
	BreakerCooldown time.Duration
}

// DefaultPolicy returns the default resilience policy: 5 attempts with a
// 1,2,4,8,16s schedule plus up to 10% jitter, breaker opening after 5
// consecutive failures with a 60s cool-down.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:       5,
		BaseDelay:        time.Second,
		JitterFraction:   0.1,
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
	}
}

// retryDelays is the escalating backoff schedule in BaseDelay units.
var retryDelays = []int{1, 2, 4, 8, 16}

// =============================================================================
// EXECUTOR
// =============================================================================

// Operation is an arbitrary call to be wrapped with retry and breaking.
type Operation func(ctx context.Context) (interface{}, error)

// Fallback is invoked when the circuit is open or retries are exhausted.
type Fallback func(ctx context.Context) (interface{}, error)

// Executor wraps operations with bounded retry, backoff with jitter, and a
// per-endpoint circuit breaker.
type Executor struct {
	policy  Policy
	breaker *Breaker

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor with the given policy.
func NewExecutor(policy Policy) *Executor {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	return &Executor{
		policy:  policy,
		breaker: NewBreaker(policy.BreakerThreshold, policy.BreakerCooldown),
		sleep:   sleepCtx,
	}
}

// Breaker exposes the underlying circuit breaker for observability.
func (e *Executor) Breaker() *Breaker {
	return e.breaker
}

// ExecuteWithRetry runs op against endpoint's circuit.
//
// When the circuit is open the fallback is invoked (if supplied), otherwise
// ErrCircuitOpen is returned without attempting op. Failures are retried up
// to MaxRetries attempts with escalating backoff plus jitter; backoff waits
// select on ctx so abandoning the call between attempts never blocks
// unrelated work. After exhaustion the fallback is tried before the final
// error is propagated.
func (e *Executor) ExecuteWithRetry(ctx context.Context, op Operation, endpoint string, fallback Fallback) (interface{}, error) {
	if e.breaker.IsOpen(endpoint) {
		if fallback != nil {
			return fallback(ctx)
		}
		return nil, fmt.Errorf("%w for endpoint %q", ErrCircuitOpen, endpoint)
	}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			e.breaker.RecordSuccess(endpoint)
			return result, nil
		}

		lastErr = err
		e.breaker.RecordFailure(endpoint)

		if attempt == e.policy.MaxRetries {
			break
		}

		if err := e.sleep(ctx, e.backoffDelay(attempt)); err != nil {
			// Caller abandoned the call at a backoff boundary; the last
			// completed attempt's outcome is already recorded.
			return nil, err
		}
	}

	if fallback != nil {
		return fallback(ctx)
	}
	return nil, fmt.Errorf("max retries exceeded for endpoint %q: %w", endpoint, lastErr)
}

// backoffDelay returns the delay before the next attempt, drawn from the
// fixed escalating schedule plus up to JitterFraction random jitter.
func (e *Executor) backoffDelay(attempt int) time.Duration {
	idx := attempt - 1
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}
	delay := time.Duration(retryDelays[idx]) * e.policy.BaseDelay
	if e.policy.JitterFraction > 0 {
		jitter := time.Duration(rand.Float64() * e.policy.JitterFraction * float64(delay))
		delay += jitter
	}
	return delay
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
