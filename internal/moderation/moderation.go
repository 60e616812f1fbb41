// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package moderation

import (
	"context"
	"strings"
)

// =============================================================================
// MODERATOR INTERFACE
// =============================================================================

// Verdict is the outcome of a moderation check.
type Verdict struct {
	// Flagged is true when the content violates policy.
	Flagged bool `json:"flagged"`
	// Reason is a short human-readable cause, set when flagged.
	Reason string `json:"reason,omitempty"`
	// Tags are machine-readable category labels.
	Tags []string `json:"tags,omitempty"`
	// Source identifies which backend produced the verdict.
	Source string `json:"source"`
}

// Moderator screens text for unsafe or policy-violating content.
type Moderator interface {
	Moderate(ctx context.Context, text string) (Verdict, error)
}

// =============================================================================
// LOCAL HEURISTIC
// =============================================================================

// HeuristicKeywords is the default keyword set for the local fallback.
// Illustrative defaults; deployments substitute stronger detectors by
// providing their own Moderator.
var HeuristicKeywords = []string{"hate", "kill", "bomb", "terror"}

// Heuristic is the local keyword fallback moderator.
type Heuristic struct {
	keywords []string
}

// NewHeuristic creates the local fallback moderator. A nil keyword list
// uses HeuristicKeywords.
func NewHeuristic(keywords []string) *Heuristic {
	if keywords == nil {
		keywords = HeuristicKeywords
	}
	return &Heuristic{keywords: keywords}
}

// Moderate flags text containing any of the configured keywords.
// Never returns an error.
func (h *Heuristic) Moderate(_ context.Context, text string) (Verdict, error) {
	lower := strings.ToLower(text)
	for _, kw := range h.keywords {
		if strings.Contains(lower, kw) {
			return Verdict{
				Flagged: true,
				Reason:  "moderation_flag",
				Tags:    []string{"violence"},
				Source:  "heuristic",
			}, nil
		}
	}
	return Verdict{Source: "heuristic"}, nil
}
