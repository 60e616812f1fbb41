// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cascade.go - Model cascade policy and the cache-then-cascade call path.
package cache

import (
	"context"
	"fmt"
)

// =============================================================================
// CASCADE POLICY
// =============================================================================

// Cascade decides when a cheaper model is worth trying first.
// A heuristic, not a guarantee.
type Cascade struct {
	// Enabled turns the cascade on.
	Enabled bool
	// MaxQueryLen is the query length below which the cheap model is tried.
	MaxQueryLen int
	// MinReplyLen is the minimal reply length considered sufficient.
	MinReplyLen int
	// CheapModel is the model identifier for first attempts.
	CheapModel string
}

// DefaultCascade returns the default policy: queries under 80 characters try
// the cheap model, replies under 20 characters escalate.
func DefaultCascade(cheapModel string) Cascade {
	return Cascade{
		Enabled:     true,
		MaxQueryLen: 80,
		MinReplyLen: 20,
		CheapModel:  cheapModel,
	}
}

// ShouldUseCheaperModel reports whether the cascade applies to this query.
func (p Cascade) ShouldUseCheaperModel(query string) bool {
	return p.Enabled && len(query) < p.MaxQueryLen
}

// =============================================================================
// OPTIMIZED CALL
// =============================================================================

// Executor performs a model call for a query. Implementations decide how the
// model identifier is interpreted.
type Executor func(ctx context.Context, query, model string) (string, error)

// Result is the outcome of an optimized call.
type Result struct {
	Text      string `json:"text"`
	Model     string `json:"model"`
	FromCache bool   `json:"from_cache"`
}

// OptimizedCall serves the query from cache when possible, otherwise runs it
// through the cascade: cheap model first for short queries, escalating to
// strongModel when the cheap reply is shorter than the sufficiency threshold.
// The final response is cached.
func (c *ResponseCache) OptimizedCall(ctx context.Context, exec Executor, query, qctx, strongModel string, policy Cascade) (*Result, error) {
	if cached, ok := c.Get(query, qctx); ok {
		return &Result{Text: cached, FromCache: true}, nil
	}

	model := strongModel
	var text string
	var err error

	if policy.ShouldUseCheaperModel(query) {
		model = policy.CheapModel
		text, err = exec(ctx, query, model)
		if err != nil {
			return nil, fmt.Errorf("cascade call failed: %w", err)
		}
		if len(text) < policy.MinReplyLen {
			// Cheap reply looks insufficient, escalate.
			model = strongModel
			text, err = exec(ctx, query, model)
			if err != nil {
				return nil, fmt.Errorf("escalated call failed: %w", err)
			}
		}
	} else {
		text, err = exec(ctx, query, model)
		if err != nil {
			return nil, err
		}
	}

	c.Put(query, text, 0, qctx)
	return &Result{Text: text, Model: model, FromCache: false}, nil
}
