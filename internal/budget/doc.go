// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package budget provides per-call spend tracking and budget accounting for llmgate.
//
// The ledger records token usage for every tracked call, derives dollar cost
// from configurable per-million-token rates, and exposes an advisory budget
// status against a daily limit. The ledger itself never blocks a request;
// enforcement belongs to the caller.
//
// # Key Types
//
//   - Ledger: In-memory spend ledger, safe for concurrent recorders
//   - UsageEntry: Immutable record of a single tracked call
//   - Status: Derived budget status (spend, percentage, alert level)
//   - Metrics: Totals, averages, and per-category cost breakdown
//   - Archive: Optional sqlite persistence for completed sessions
//
// # Usage
//
// Track a call:
//
//	ledger := budget.NewLedger(budget.DefaultRates(), 100.00, 70.0)
//	ledger.Record("summarizer", 1000, 2000)
//
// Check budget before issuing a call:
//
//	if ledger.ShouldBlock() {
//	    return errBudgetExhausted
//	}
//
// # Privacy
//
// The ledger stores token counts and category labels only. Prompt and
// response content never enter the ledger.
package budget
