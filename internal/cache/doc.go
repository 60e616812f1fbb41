// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides TTL response caching and the model-cascade policy
// for llmgate.
//
// Responses are keyed by a deterministic fingerprint of the normalized
// (query, context) pair. Stale entries are lazily evicted on lookup. The
// cascade policy heuristically routes short queries to a cheaper model,
// escalating to the strong model when the cheap reply looks insufficient.
//
// # Key Types
//
//   - ResponseCache: Mutex-guarded TTL cache with hit/miss statistics
//   - Result: Outcome of an optimized call, tagged with FromCache
//   - Executor: Caller-supplied function that performs the model call
//
// # Usage
//
//	c := cache.New(cache.Options{TTL: time.Hour, Enabled: true})
//	res, err := c.OptimizedCall(ctx, exec, query, "", "openai/gpt-4o")
//	if res.FromCache {
//	    // served without a model call
//	}
package cache
