// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security provides input screening for llmgate.
//
// Every inbound request runs a fixed pipeline, short-circuiting on the first
// rejection: per-identity rate limiting, sanitization, prompt-injection
// heuristics, PII detection, and content moderation. Moderation attempts are
// recorded in a bounded in-memory log and a durable JSONL audit log whose
// lines carry HMAC signatures for tamper detection.
//
// # Key Types
//
//   - Gate: The screening pipeline
//   - Verdict: Accepted or rejected-with-reason-and-detail
//   - RateLimiter: Sliding 60-second window per identity
//   - AuditLog: Append-only moderation trail (memory + JSONL)
//
// # Usage
//
//	gate := security.NewGate(security.Options{MaxRequestsPerMinute: 10}, nil, auditLog)
//	v := gate.ValidateInput(ctx, text, userID)
//	if !v.Accepted {
//	    // v.Reason is human-readable, v.Detail is machine-readable
//	}
//
// Rejections are structured and non-retryable so callers never retry
// blocked content; they are always distinguishable from transient failures.
package security
