// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package evaluate provides a fixed self-test suite for llmgate deployments.
//
// The suite holds exactly ten prompts: two normal, six edge (empty input,
// very long repeated input, markup/script content, non-Latin text, an
// ambiguous prompt, a compound multi-question prompt), and two adversarial
// (prompt injection, jailbreak role override). Each case is run through a
// caller-supplied executor and judged against named criteria; failures are
// captured as data, never raised.
//
// # Usage
//
//	harness := evaluate.NewHarness()
//	summary := harness.RunAll(ctx, func(ctx context.Context, prompt string) (string, error) {
//	    return backend.Ask(ctx, prompt)
//	})
//	fmt.Printf("%d/%d passed\n", summary.Passed, summary.Total)
package evaluate
