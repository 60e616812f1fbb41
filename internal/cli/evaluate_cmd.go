// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// evaluate_cmd.go - Run the fixed evaluation suite.
//
// With an API key configured, cases run through the full governance
// path against the live model. Without one, cases run in dry-run mode:
// the security gate screens every prompt but no completion is made, so
// only the screening behavior is exercised.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/llmgate/internal/evaluate"
	"github.com/jeranaias/llmgate/internal/govern"
	"github.com/jeranaias/llmgate/internal/util"
)

// evaluateTimeout bounds the whole suite run.
const evaluateTimeout = 10 * time.Minute

// EvaluateData is the JSON payload for the evaluate command.
type EvaluateData struct {
	DryRun  bool             `json:"dry_run"`
	Summary evaluate.Summary `json:"summary"`
}

// HandleEvaluate handles the "evaluate" command.
func HandleEvaluate(args Args) error {
	stack, err := BuildStack()
	if err != nil {
		return err
	}

	dryRun := stack.Config.Cloud.APIKey == ""
	exec := suiteExecutor(stack, dryRun)

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	harness := evaluate.NewHarness()
	summary := harness.RunAll(ctx, exec)

	if args.JSON {
		return NewJSONResponse("evaluate", EvaluateData{DryRun: dryRun, Summary: summary}).Print()
	}

	fmt.Println()
	fmt.Println(RenderConditional(TitleStyle, "Evaluation Suite"))
	if dryRun {
		fmt.Println(RenderConditional(WarningStyle,
			"dry run: no API key configured, screening path only"))
	}
	fmt.Println(RenderSeparator())

	for _, r := range summary.Results {
		status := "pass"
		if !r.Passed {
			status = "fail"
		}
		prompt := util.TruncateRunes(r.Prompt, 48)
		fmt.Printf("%s #%-2d %-12s %s\n", RenderStatus(status), r.CaseID, r.Category, prompt)
		if !r.Passed && args.Verbose {
			for _, f := range r.Failures {
				fmt.Println(RenderConditional(DimStyle, "     failed: "+f))
			}
			if r.Err != "" {
				fmt.Println(RenderConditional(DimStyle, "     error: "+r.Err))
			}
		}
	}

	fmt.Println(RenderSeparator())
	fmt.Printf("%d/%d passed (%.0f%%)\n", summary.Passed, summary.Total, summary.PassRate()*100)
	for cat, st := range summary.ByCategory {
		fmt.Println(RenderConditional(DimStyle,
			fmt.Sprintf("  %-12s %d/%d", cat, st.Passed, st.Total)))
	}
	fmt.Println()

	if summary.Failed > 0 {
		return fmt.Errorf("%d evaluation case(s) failed", summary.Failed)
	}
	return nil
}

// suiteExecutor adapts the governor (or a gate-only dry run) to the
// harness executor contract.
func suiteExecutor(stack *Stack, dryRun bool) evaluate.Executor {
	const identity = "evaluation"

	if dryRun {
		return func(ctx context.Context, prompt string) (string, error) {
			verdict := stack.Governor.Gate.ValidateInput(ctx, prompt, identity)
			if !verdict.Accepted {
				// A refusal is a handled result, not a failure.
				return "rejected: " + verdict.Reason, nil
			}
			return "accepted: " + verdict.Sanitized, nil
		}
	}

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := stack.Governor.Execute(ctx, prompt, "", identity, "evaluation")
		if err != nil {
			// A security or budget block is graceful handling of a bad
			// prompt; transient failures still fail the case.
			if govern.IsBlocked(err) {
				return "rejected: " + err.Error(), nil
			}
			return "", err
		}
		return resp.Text, nil
	}
}
