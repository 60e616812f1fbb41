// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements command-line parsing and command handlers for
// llmgate.
//
// Commands:
//   - ask:       run one governed completion request
//   - status:    show budget, cache and circuit state
//   - validate:  run text through the security gate without spending
//   - evaluate:  run the fixed evaluation suite
//   - checklist: run the production readiness review
//   - audit:     inspect and verify the moderation audit log
//   - config:    show, locate or reset configuration
//   - version:   show version information
//
// Every command supports --json for machine-readable output.
package cli
