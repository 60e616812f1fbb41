// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package budget

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// PRICING
// =============================================================================

// Rates holds per-million-token pricing in dollars.
type Rates struct {
	// Input is the cost per 1M input tokens in dollars.
	Input float64 `json:"input"`
	// Output is the cost per 1M output tokens in dollars.
	Output float64 `json:"output"`
}

// DefaultRates returns the default pricing: $5/M input, $15/M output.
func DefaultRates() Rates {
	return Rates{Input: 5.00, Output: 15.00}
}

// Cost calculates the dollar cost for a token pair under these rates.
func (r Rates) Cost(inputTokens, outputTokens int) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * r.Input
	outputCost := float64(outputTokens) / 1_000_000 * r.Output
	return inputCost + outputCost
}

// =============================================================================
// USAGE ENTRIES
// =============================================================================

// UsageEntry is an immutable record of a single tracked call.
type UsageEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Category     string    `json:"category"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
}

// AlertLevel classifies the budget status.
type AlertLevel string

const (
	AlertOK       AlertLevel = "ok"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Status is the derived budget status. Recomputed on demand, never stored.
type Status struct {
	CurrentSpend float64    `json:"current_spend"`
	Percentage   float64    `json:"percentage"`
	Level        AlertLevel `json:"alert_level"`
	Message      string     `json:"message"`
	Remaining    float64    `json:"remaining"`
}

// Metrics is a snapshot of ledger totals and averages.
type Metrics struct {
	TotalRequests     int                `json:"total_requests"`
	TotalInputTokens  int                `json:"total_input_tokens"`
	TotalOutputTokens int                `json:"total_output_tokens"`
	AvgCostPerRequest float64            `json:"avg_cost_per_request"`
	CostByCategory    map[string]float64 `json:"cost_by_category"`
	TotalCost         float64            `json:"total_cost"`
	Budget            Status             `json:"budget_status"`
}

// =============================================================================
// LEDGER
// =============================================================================

// sessionIDCounter ensures unique session IDs even when created rapidly
var sessionIDCounter uint64

// Ledger tracks token usage and spend for a session.
// Safe for concurrent recorders; totals are maintained incrementally so
// CurrentSpend is O(1).
type Ledger struct {
	mu sync.RWMutex

	sessionID      string
	startTime      time.Time
	rates          Rates
	dailyLimit     float64
	alertThreshold float64

	entries           []UsageEntry
	totalCost         float64
	totalInputTokens  int
	totalOutputTokens int
	costByCategory    map[string]float64
}

// NewLedger creates a ledger with the given rates, daily limit in dollars,
// and warning threshold as a percentage of the limit.
func NewLedger(rates Rates, dailyLimit, alertThreshold float64) *Ledger {
	return &Ledger{
		sessionID:      generateSessionID(),
		startTime:      time.Now(),
		rates:          rates,
		dailyLimit:     dailyLimit,
		alertThreshold: alertThreshold,
		costByCategory: make(map[string]float64),
	}
}

// SessionID returns the ledger's session identifier.
func (l *Ledger) SessionID() string {
	return l.sessionID
}

// Record appends a usage entry for the given category.
// Negative token counts are clamped to zero. Record never fails.
func (l *Ledger) Record(category string, inputTokens, outputTokens int) {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	cost := l.rates.Cost(inputTokens, outputTokens)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, UsageEntry{
		Timestamp:    time.Now().UTC(),
		Category:     category,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
	})
	l.totalCost += cost
	l.totalInputTokens += inputTokens
	l.totalOutputTokens += outputTokens
	l.costByCategory[category] += cost
}

// CurrentSpend returns the sum of all recorded costs.
func (l *Ledger) CurrentSpend() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalCost
}

// Status derives the current budget status against the daily limit.
func (l *Ledger) Status() Status {
	l.mu.RLock()
	spend := l.totalCost
	limit := l.dailyLimit
	threshold := l.alertThreshold
	l.mu.RUnlock()

	percentage := 0.0
	if limit > 0 {
		percentage = spend / limit * 100
	}

	var level AlertLevel
	var message string
	switch {
	case percentage >= 100:
		level = AlertCritical
		message = fmt.Sprintf("BUDGET EXCEEDED! $%.2f / $%.2f", spend, limit)
	case percentage >= threshold:
		level = AlertWarning
		message = fmt.Sprintf("Budget warning: $%.2f / $%.2f (%.1f%%)", spend, limit, percentage)
	default:
		level = AlertOK
		message = fmt.Sprintf("Budget OK: $%.2f / $%.2f", spend, limit)
	}

	remaining := limit - spend
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		CurrentSpend: spend,
		Percentage:   percentage,
		Level:        level,
		Message:      message,
		Remaining:    remaining,
	}
}

// ShouldBlock reports whether the daily limit has been reached.
// Advisory only: the ledger never refuses a Record.
func (l *Ledger) ShouldBlock() bool {
	return l.Status().Percentage >= 100
}

// Metrics returns a snapshot of totals, averages, and the per-category
// cost breakdown.
func (l *Ledger) Metrics() Metrics {
	status := l.Status()

	l.mu.RLock()
	defer l.mu.RUnlock()

	avg := 0.0
	if n := len(l.entries); n > 0 {
		avg = l.totalCost / float64(n)
	}

	byCategory := make(map[string]float64, len(l.costByCategory))
	for k, v := range l.costByCategory {
		byCategory[k] = v
	}

	return Metrics{
		TotalRequests:     len(l.entries),
		TotalInputTokens:  l.totalInputTokens,
		TotalOutputTokens: l.totalOutputTokens,
		AvgCostPerRequest: avg,
		CostByCategory:    byCategory,
		TotalCost:         l.totalCost,
		Budget:            status,
	}
}

// Entries returns a copy of the recorded usage entries.
func (l *Ledger) Entries() []UsageEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]UsageEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// StartTime returns when this ledger session began.
func (l *Ledger) StartTime() time.Time {
	return l.startTime
}

// generateSessionID generates a unique session ID.
func generateSessionID() string {
	// Date format plus atomic counter for guaranteed uniqueness
	now := time.Now()
	counter := atomic.AddUint64(&sessionIDCounter, 1)
	return now.Format("20060102-150405") + "-" + fmt.Sprintf("%d", counter)
}
