// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// validate_cmd.go - Screen text through the security gate without
// making a completion call or spending budget.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ValidateData is the JSON payload for the validate command.
type ValidateData struct {
	Accepted  bool           `json:"accepted"`
	Reason    string         `json:"reason,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Sanitized string         `json:"sanitized,omitempty"`
}

// HandleValidate handles the "validate" command.
func HandleValidate(args Args) error {
	if args.Query == "" {
		return errors.New("validate requires text, e.g. llmgate validate \"some input\"")
	}

	stack, err := BuildStack()
	if err != nil {
		return err
	}

	identity := args.Identity
	if identity == "" {
		identity = LocalIdentity()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict := stack.Governor.Gate.ValidateInput(ctx, args.Query, identity)

	if args.JSON {
		return NewJSONResponse("validate", ValidateData{
			Accepted:  verdict.Accepted,
			Reason:    verdict.Reason,
			Detail:    verdict.Detail,
			Sanitized: verdict.Sanitized,
		}).Print()
	}

	if verdict.Accepted {
		fmt.Printf("%s input accepted\n", RenderStatus("ok"))
		if verdict.Sanitized != args.Query {
			fmt.Println(RenderConditional(DimStyle, "sanitized: "+verdict.Sanitized))
		}
		return nil
	}

	fmt.Printf("%s %s\n", RenderStatus("fail"), verdict.Reason)
	for k, v := range verdict.Detail {
		fmt.Println(RenderConditional(DimStyle, fmt.Sprintf("  %s: %v", k, v)))
	}
	return fmt.Errorf("input rejected: %s", verdict.Reason)
}
