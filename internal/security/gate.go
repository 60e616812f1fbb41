// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// gate.go - The security screening pipeline.
package security

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/llmgate/internal/moderation"
)

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is the outcome of ValidateInput. Rejections carry a
// human-readable reason and machine-readable detail so callers can
// distinguish cause categories without retrying blocked content.
type Verdict struct {
	Accepted bool           `json:"accepted"`
	Reason   string         `json:"reason,omitempty"`
	Detail   map[string]any `json:"detail,omitempty"`
	// Sanitized is the cleaned input, set when accepted.
	Sanitized string `json:"-"`
}

// =============================================================================
// GATE
// =============================================================================

// Options configures a Gate.
type Options struct {
	// MaxRequestsPerMinute is the per-identity sliding-window ceiling.
	MaxRequestsPerMinute int
	// ModerationBurst bounds calls to the external moderation backend
	// (token bucket, shared across identities). Zero uses a default of
	// 5/s with burst 10.
	ModerationRate  rate.Limit
	ModerationBurst int
}

// Gate runs the inbound screening pipeline: rate limit, sanitize,
// injection heuristic, PII detection, moderation. First rejection wins.
type Gate struct {
	limiter   *RateLimiter
	moderator moderation.Moderator
	fallback  *moderation.Heuristic
	audit     *AuditLog

	// backendLimiter protects the external moderation service from request
	// floods; exhaustion degrades to the local heuristic.
	backendLimiter *rate.Limiter
}

// NewGate creates a gate. moderator may be nil, in which case only the
// local heuristic is used. audit may be nil to disable audit logging.
func NewGate(opts Options, moderator moderation.Moderator, audit *AuditLog) *Gate {
	if opts.MaxRequestsPerMinute < 1 {
		opts.MaxRequestsPerMinute = 10
	}
	if opts.ModerationRate == 0 {
		opts.ModerationRate = rate.Limit(5)
	}
	if opts.ModerationBurst == 0 {
		opts.ModerationBurst = 10
	}

	return &Gate{
		limiter:        NewRateLimiter(opts.MaxRequestsPerMinute),
		moderator:      moderator,
		fallback:       moderation.NewHeuristic(nil),
		audit:          audit,
		backendLimiter: rate.NewLimiter(opts.ModerationRate, opts.ModerationBurst),
	}
}

// RateLimiter exposes the per-identity limiter (for the status command).
func (g *Gate) RateLimiter() *RateLimiter {
	return g.limiter
}

// ValidateInput runs the pipeline for text on behalf of identity,
// stopping at the first rejection.
func (g *Gate) ValidateInput(ctx context.Context, text, identity string) Verdict {
	if identity == "" {
		identity = "anonymous"
	}

	// 1. Rate limiting
	if !g.limiter.Allow(identity) {
		return Verdict{
			Reason: fmt.Sprintf("rate limit exceeded: %d req/min", g.limiter.Limit()),
			Detail: map[string]any{"rate_limited": true},
		}
	}

	// 2. Sanitization
	text = Sanitize(text)
	if text == "" {
		return Verdict{
			Reason: "input is empty after sanitization",
			Detail: map[string]any{"empty": true},
		}
	}

	// 3. Prompt-injection heuristic
	if injected, reason := DetectInjection(text); injected {
		return Verdict{
			Reason: reason,
			Detail: map[string]any{"prompt_injection": true},
		}
	}

	// 4. PII detection
	if found, categories := DetectPII(text); found {
		return Verdict{
			Reason: fmt.Sprintf("PII detected: %s", strings.Join(categories, ", ")),
			Detail: map[string]any{"pii": categories},
		}
	}

	// 5. Content moderation
	verdict := g.moderate(ctx, text)
	if verdict.Flagged {
		return Verdict{
			Reason: fmt.Sprintf("moderation blocked input: %s", verdict.Reason),
			Detail: map[string]any{"moderation": verdict},
		}
	}

	return Verdict{Accepted: true, Sanitized: text}
}

// moderate dispatches to the external backend when configured and permitted
// by the backend limiter, degrading to the local heuristic on any error.
// Every attempt is appended to the audit log.
func (g *Gate) moderate(ctx context.Context, text string) moderation.Verdict {
	var verdict moderation.Verdict
	var err error

	if g.moderator != nil && g.backendLimiter.Allow() {
		verdict, err = g.moderator.Moderate(ctx, text)
	} else {
		err = moderation.ErrNotConfigured
	}
	if err != nil {
		// Backend absent or failing: the heuristic never errors.
		verdict, _ = g.fallback.Moderate(ctx, text)
	}

	if g.audit != nil {
		detail := map[string]any{"source": verdict.Source}
		if verdict.Flagged {
			detail["reason"] = verdict.Reason
			detail["tags"] = verdict.Tags
		}
		g.audit.Append(text, verdict.Flagged, detail)
	}
	return verdict
}
