// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// wire.go - Component construction from configuration.
//
// Every command builds its stack through here so config, environment
// overrides, and defaults are applied the same way everywhere.
package cli

import (
	"fmt"
	"os"
	"os/user"

	"github.com/jeranaias/llmgate/internal/budget"
	"github.com/jeranaias/llmgate/internal/cache"
	"github.com/jeranaias/llmgate/internal/cloud"
	"github.com/jeranaias/llmgate/internal/config"
	"github.com/jeranaias/llmgate/internal/govern"
	"github.com/jeranaias/llmgate/internal/moderation"
	"github.com/jeranaias/llmgate/internal/resilience"
	"github.com/jeranaias/llmgate/internal/security"
)

// Stack is the fully wired governance layer for one CLI invocation.
type Stack struct {
	Config   *config.Config
	Governor *govern.Governor
	Audit    *security.AuditLog
}

// BuildStack loads configuration and wires every governance component.
func BuildStack() (*Stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return BuildStackFromConfig(cfg)
}

// BuildStackFromConfig wires the governance components from an explicit
// configuration.
func BuildStackFromConfig(cfg *config.Config) (*Stack, error) {
	rates := budget.Rates{
		Input:  cfg.Budget.InputRate,
		Output: cfg.Budget.OutputRate,
	}
	ledger := budget.NewLedger(rates, cfg.Budget.DailyLimit, cfg.Budget.AlertThreshold)

	respCache := cache.New(cache.Options{
		TTL:     cfg.CacheTTL(),
		Enabled: cfg.Cache.Enabled,
	})

	cascade := cache.Cascade{
		Enabled:     cfg.Cache.CascadeEnabled,
		MaxQueryLen: cfg.Cache.CascadeMaxQueryLen,
		MinReplyLen: cache.DefaultCascade(cfg.Cache.CheapModel).MinReplyLen,
		CheapModel:  cfg.Cache.CheapModel,
	}

	policy := resilience.Policy{
		MaxRetries:       cfg.Resilience.MaxRetries,
		BaseDelay:        resilience.DefaultPolicy().BaseDelay,
		JitterFraction:   resilience.DefaultPolicy().JitterFraction,
		BreakerThreshold: cfg.Resilience.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown(),
	}
	executor := resilience.NewExecutor(policy)

	audit, err := security.NewAuditLog(cfg.Security.AuditLogPath, cfg.Security.AuditKeep)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	var moderator moderation.Moderator
	if cfg.Security.ModerationURL != "" {
		moderator = moderation.NewClient(cfg.Security.ModerationURL, cfg.Security.ModerationKey)
	}

	gate := security.NewGate(security.Options{
		MaxRequestsPerMinute: cfg.Security.MaxRequestsPerMinute,
	}, moderator, audit)

	client := cloud.NewClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey)

	model := cfg.Cloud.DefaultModel
	gov := &govern.Governor{
		Ledger:      ledger,
		Cache:       respCache,
		Cascade:     cascade,
		Executor:    executor,
		Gate:        gate,
		Client:      client,
		StrongModel: model,
	}

	return &Stack{Config: cfg, Governor: gov, Audit: audit}, nil
}

// OpenArchive opens the spend archive configured for this deployment.
func (s *Stack) OpenArchive() (*budget.Archive, error) {
	return budget.OpenArchive(s.Config.Budget.ArchivePath)
}

// LocalIdentity resolves the rate-limit identity for CLI invocations:
// the current OS user, falling back to "local".
func LocalIdentity() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "local"
}
