// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command: budget, archive, audit and config summary.
package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/llmgate/internal/config"
)

// StatusData is the JSON payload for the status command.
type StatusData struct {
	APIKeyConfigured bool    `json:"api_key_configured"`
	Model            string  `json:"model"`
	DailyLimit       float64 `json:"daily_limit"`
	AlertThreshold   float64 `json:"alert_threshold"`
	SpendToday       float64 `json:"spend_today"`
	SpendTotal       float64 `json:"spend_total"`
	CacheEnabled     bool    `json:"cache_enabled"`
	CacheTTLSeconds  int     `json:"cache_ttl_seconds"`
	CascadeEnabled   bool    `json:"cascade_enabled"`
	MaxRetries       int     `json:"max_retries"`
	BreakerThreshold int     `json:"breaker_threshold"`
	RateLimitPerMin  int     `json:"rate_limit_per_minute"`
	AuditEntries     int     `json:"audit_entries"`
	AuditValid       int     `json:"audit_valid"`
	AuditInvalid     int     `json:"audit_invalid"`
}

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	stack, err := BuildStack()
	if err != nil {
		return err
	}
	cfg := stack.Config

	data := StatusData{
		APIKeyConfigured: cfg.Cloud.APIKey != "",
		Model:            cfg.Cloud.DefaultModel,
		DailyLimit:       cfg.Budget.DailyLimit,
		AlertThreshold:   cfg.Budget.AlertThreshold,
		CacheEnabled:     cfg.Cache.Enabled,
		CacheTTLSeconds:  cfg.Cache.TTLSeconds,
		CascadeEnabled:   cfg.Cache.CascadeEnabled,
		MaxRetries:       cfg.Resilience.MaxRetries,
		BreakerThreshold: cfg.Resilience.BreakerThreshold,
		RateLimitPerMin:  cfg.Security.MaxRequestsPerMinute,
	}

	// Archived spend: today and all time. Missing archive is not an error.
	if arch, archErr := stack.OpenArchive(); archErr == nil {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if spend, qErr := arch.TotalSpend(dayStart, now); qErr == nil {
			data.SpendToday = spend
		}
		if spend, qErr := arch.TotalSpend(time.Time{}, now); qErr == nil {
			data.SpendTotal = spend
		}
		arch.Close()
	}

	if verify, vErr := stack.Audit.Verify(); vErr == nil {
		data.AuditEntries = verify.Lines
		data.AuditValid = verify.Valid
		data.AuditInvalid = verify.Invalid
	}

	if args.JSON {
		return NewJSONResponse("status", data).Print()
	}

	fmt.Println()
	fmt.Println(RenderConditional(TitleStyle, "llmgate Status"))
	fmt.Println(RenderSeparator())

	printStatusLine("API key", boolStatus(data.APIKeyConfigured, "configured", "missing"))
	printStatusLine("Model", data.Model)

	fmt.Println(RenderConditional(SectionStyle, "Budget"))
	printStatusLine("Daily limit", fmt.Sprintf("$%.2f (alert at %.0f%%)", data.DailyLimit, data.AlertThreshold))
	printStatusLine("Spend today", fmt.Sprintf("$%.4f", data.SpendToday))
	printStatusLine("Spend total", fmt.Sprintf("$%.4f", data.SpendTotal))
	if data.DailyLimit > 0 {
		pct := data.SpendToday / data.DailyLimit * 100
		switch {
		case pct >= 100:
			printStatusLine("Today", RenderConditional(ErrorStyle, fmt.Sprintf("%.1f%% of limit", pct)))
		case pct >= data.AlertThreshold:
			printStatusLine("Today", RenderConditional(WarningStyle, fmt.Sprintf("%.1f%% of limit", pct)))
		default:
			printStatusLine("Today", fmt.Sprintf("%.1f%% of limit", pct))
		}
	}

	fmt.Println(RenderConditional(SectionStyle, "Cost controls"))
	printStatusLine("Cache", boolStatus(data.CacheEnabled, fmt.Sprintf("enabled (TTL %ds)", data.CacheTTLSeconds), "disabled"))
	printStatusLine("Cascade", boolStatus(data.CascadeEnabled, "enabled", "disabled"))

	fmt.Println(RenderConditional(SectionStyle, "Resilience"))
	printStatusLine("Retries", fmt.Sprintf("%d attempts", data.MaxRetries))
	printStatusLine("Circuit breaker", fmt.Sprintf("opens after %d failures", data.BreakerThreshold))

	fmt.Println(RenderConditional(SectionStyle, "Security"))
	printStatusLine("Rate limit", fmt.Sprintf("%d req/min per identity", data.RateLimitPerMin))
	auditLine := fmt.Sprintf("%d entries, %d valid", data.AuditEntries, data.AuditValid)
	if data.AuditInvalid > 0 {
		auditLine += RenderConditional(ErrorStyle, fmt.Sprintf(", %d invalid", data.AuditInvalid))
	}
	printStatusLine("Audit log", auditLine)
	fmt.Println()

	// Config is loaded, so mention where it came from.
	if path, pErr := config.Path(); pErr == nil && args.Verbose {
		fmt.Println(RenderConditional(DimStyle, "config: "+path))
		fmt.Println()
	}
	return nil
}

func printStatusLine(label, value string) {
	fmt.Printf("%s %s\n",
		RenderConditional(LabelStyle, label),
		RenderConditional(ValueStyle, value))
}

func boolStatus(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return RenderConditional(WarningStyle, no)
}
