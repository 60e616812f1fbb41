// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resilience wraps outbound calls with bounded retry, exponential
// backoff with jitter, and per-endpoint circuit breaking.
//
// A circuit opens after a threshold of consecutive failures and fails fast
// until a cool-down elapses; the next attempt is then admitted half-open,
// closing the circuit on success. Backoff waits select on the caller's
// context so abandoning a call never blocks unrelated work.
//
// # Key Types
//
//   - Executor: Retry/breaker wrapper around arbitrary operations
//   - Breaker: Per-endpoint circuit state machine
//   - CircuitSnapshot: Observable breaker state for dashboards
//
// # Usage
//
//	ex := resilience.NewExecutor(resilience.DefaultPolicy())
//	out, err := ex.ExecuteWithRetry(ctx, op, "completion", fallback)
//	if errors.Is(err, resilience.ErrCircuitOpen) {
//	    // temporarily unavailable, do not retry
//	}
package resilience
