// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// llmgate wraps LLM completion calls with the production controls a
// deployment needs: budget tracking, response caching, resilient
// execution, security screening, evaluation, and a readiness review.
package main

import (
	"os"

	"github.com/jeranaias/llmgate/internal/cli"
)

func main() {
	cmd, args := cli.Parse()
	os.Exit(cli.Run(cmd, args))
}
