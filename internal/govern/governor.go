// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package govern wires the governance components into the request path.
//
// For each request: cache lookup, security screening, budget check, the
// completion call through the resilient executor, usage recording, and a
// cache store. Security rejections and budget blocks are structured and
// non-retryable so callers never confuse them with transient failures.
package govern

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/llmgate/internal/budget"
	"github.com/jeranaias/llmgate/internal/cache"
	"github.com/jeranaias/llmgate/internal/cloud"
	"github.com/jeranaias/llmgate/internal/resilience"
	"github.com/jeranaias/llmgate/internal/security"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrBudgetExceeded is returned when the daily limit has been reached.
// Non-retryable: refusing the call is the point.
var ErrBudgetExceeded = errors.New("daily budget exceeded")

// BlockedError is a structured security rejection. Non-retryable.
type BlockedError struct {
	Reason string
	Detail map[string]any
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// IsBlocked reports whether err is a security rejection or budget block,
// as opposed to a transient failure worth retrying upstream.
func IsBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be) || errors.Is(err, ErrBudgetExceeded)
}

// =============================================================================
// GOVERNOR
// =============================================================================

// Endpoint is the circuit-breaker identifier for the completion service.
const Endpoint = "completion"

// Response is a governed call result.
type Response struct {
	Text      string `json:"text"`
	Model     string `json:"model"`
	FromCache bool   `json:"from_cache"`
}

// Governor runs requests through the full governance path.
type Governor struct {
	Ledger   *budget.Ledger
	Cache    *cache.ResponseCache
	Cascade  cache.Cascade
	Executor *resilience.Executor
	Gate     *security.Gate
	Client   cloud.CompletionClient

	// StrongModel is the model used when the cascade does not apply.
	StrongModel string
}

// Execute runs one governed request for identity. category labels the
// usage entry (e.g. the calling agent's name).
func (g *Governor) Execute(ctx context.Context, query, qctx, identity, category string) (*Response, error) {
	// Cache first: a hit skips screening and spend entirely.
	if text, ok := g.Cache.Get(query, qctx); ok {
		return &Response{Text: text, FromCache: true}, nil
	}

	verdict := g.Gate.ValidateInput(ctx, query, identity)
	if !verdict.Accepted {
		return nil, &BlockedError{Reason: verdict.Reason, Detail: verdict.Detail}
	}

	if g.Ledger.ShouldBlock() {
		return nil, fmt.Errorf("%w: %s", ErrBudgetExceeded, g.Ledger.Status().Message)
	}

	query = verdict.Sanitized

	exec := func(ctx context.Context, q, model string) (string, error) {
		return g.execModel(ctx, q, model, category)
	}
	result, err := g.Cache.OptimizedCall(ctx, exec, query, qctx, g.StrongModel, g.Cascade)
	if err != nil {
		return nil, err
	}

	return &Response{Text: result.Text, Model: result.Model, FromCache: result.FromCache}, nil
}

// execModel performs a single model call through the resilient executor
// and records usage on success.
func (g *Governor) execModel(ctx context.Context, query, model, category string) (string, error) {
	op := func(ctx context.Context) (interface{}, error) {
		return g.Client.Complete(ctx, query, model)
	}

	out, err := g.Executor.ExecuteWithRetry(ctx, op, Endpoint, nil)
	if err != nil {
		return "", err
	}

	completion, ok := out.(*cloud.Completion)
	if !ok || completion == nil {
		return "", errors.New("unexpected completion result type")
	}

	g.Ledger.Record(category, completion.Usage.InputTokens, completion.Usage.OutputTokens)
	return completion.Text, nil
}
