// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single governed completion request.
//
// Command: ask "question"
//
// Runs one request through the full governance path: cache lookup,
// security screening, budget check, resilient completion call, usage
// recording. The session's spend is archived on the way out.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/llmgate/internal/govern"
)

// askTimeout bounds a single governed request end to end, including
// retries and backoff.
const askTimeout = 3 * time.Minute

// AskData is the JSON payload for the ask command.
type AskData struct {
	Text      string  `json:"text"`
	Model     string  `json:"model,omitempty"`
	FromCache bool    `json:"from_cache"`
	Spend     float64 `json:"session_spend"`
}

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) error {
	if args.Query == "" {
		return errors.New("ask requires a question, e.g. llmgate ask \"What changed?\"")
	}

	stack, err := BuildStack()
	if err != nil {
		return err
	}
	if args.Model != "" {
		stack.Governor.StrongModel = args.Model
	}
	if stack.Config.Cloud.APIKey == "" {
		return errors.New("no API key configured; set LLMGATE_API_KEY or cloud.api_key")
	}

	identity := args.Identity
	if identity == "" {
		identity = LocalIdentity()
	}
	category := args.Category
	if category == "" {
		category = "cli"
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	resp, err := stack.Governor.Execute(ctx, args.Query, args.Context, identity, category)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
			return err
		}
		if govern.IsBlocked(err) {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("fail"), err)
			return err
		}
		return err
	}

	// Archive the session spend; a failure here never fails the request.
	if arch, archErr := stack.OpenArchive(); archErr == nil {
		arch.Save(stack.Governor.Ledger)
		arch.Close()
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Text:      resp.Text,
			Model:     resp.Model,
			FromCache: resp.FromCache,
			Spend:     stack.Governor.Ledger.CurrentSpend(),
		}).Print()
	}

	fmt.Println(resp.Text)
	if !args.Quiet {
		status := stack.Governor.Ledger.Status()
		source := resp.Model
		if resp.FromCache {
			source = "cache"
		}
		fmt.Println()
		fmt.Println(RenderConditional(DimStyle, fmt.Sprintf(
			"[%s] session spend $%.4f (%.1f%% of daily limit)",
			source, status.CurrentSpend, status.Percentage)))
	}
	return nil
}
