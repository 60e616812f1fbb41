// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// checklist_cmd.go - Production readiness review.
//
// Command: checklist
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
package cli

import (
	"fmt"

	"github.com/jeranaias/llmgate/internal/checklist"
)

// HandleChecklist handles the "checklist" command.
func HandleChecklist(args Args) error {
	stack, err := BuildStack()
	if err != nil {
		return err
	}

	env := &checklist.Env{
		Config:        stack.Config,
		APIKey:        stack.Config.Cloud.APIKey,
		HaveLedger:    stack.Governor.Ledger != nil,
		HaveCache:     stack.Governor.Cache != nil,
		HaveBreaker:   stack.Governor.Executor != nil,
		HaveGate:      stack.Governor.Gate != nil,
		HaveModerator: stack.Config.Security.ModerationURL != "",
	}

	report := checklist.RunAll(env)

	if args.JSON {
		resp := NewJSONResponse("checklist", report)
		if !report.Ready {
			errMsg := fmt.Sprintf("%d readiness check(s) failed", report.Failed)
			resp.Success = false
			resp.Error = &errMsg
		}
		if pErr := resp.Print(); pErr != nil {
			return pErr
		}
		if !report.Ready {
			return fmt.Errorf("%d readiness check(s) failed", report.Failed)
		}
		return nil
	}

	fmt.Println()
	fmt.Println(RenderConditional(TitleStyle, "Production Readiness"))
	fmt.Println(RenderSeparator())

	for _, r := range report.Results {
		status := "pass"
		if !r.Passed {
			status = "fail"
		}
		fmt.Printf("%s %-16s %s\n", RenderStatus(status), r.Name,
			RenderConditional(ValueStyle, r.Message))
		if !r.Passed && r.Fix != "" {
			fmt.Println(RenderConditional(DimStyle, "       -> "+r.Fix))
		}
	}

	fmt.Println(RenderSeparator())
	scoreLine := fmt.Sprintf("Score: %d/100 (%d passed, %d failed)",
		report.Score, report.Passed, report.Failed)
	switch {
	case report.Ready:
		fmt.Println(RenderConditional(SuccessStyle, scoreLine+" - ready for production"))
	case report.Score >= 75:
		fmt.Println(RenderConditional(WarningStyle, scoreLine+" - almost there"))
	default:
		fmt.Println(RenderConditional(ErrorStyle, scoreLine+" - not ready"))
	}
	fmt.Println()

	if !report.Ready {
		return fmt.Errorf("%d readiness check(s) failed", report.Failed)
	}
	return nil
}
