// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnvOverrides blanks every recognized override so ambient shell
// state cannot leak into assertions.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DAILY_SPENDING_LIMIT", "ALERT_THRESHOLD", "MAX_REQUESTS_PER_MINUTE",
		"CACHE_TTL_SECONDS", "CIRCUIT_BREAKER_THRESHOLD",
		"LLMGATE_API_KEY", "LLMGATE_BASE_URL", "LLMGATE_MODEL",
		"LLMGATE_MODERATION_URL", "LLMGATE_MODERATION_KEY",
	} {
		t.Setenv(key, "")
	}
}

// ===== DEFAULTS =====

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Budget.DailyLimit != 100.00 {
		t.Errorf("DailyLimit = %v, want 100", cfg.Budget.DailyLimit)
	}
	if cfg.Budget.AlertThreshold != 70.0 {
		t.Errorf("AlertThreshold = %v, want 70", cfg.Budget.AlertThreshold)
	}
	if cfg.Budget.InputRate != 5.00 || cfg.Budget.OutputRate != 15.00 {
		t.Errorf("rates = %v/%v, want 5/15", cfg.Budget.InputRate, cfg.Budget.OutputRate)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("cache = %+v, want enabled with 3600s TTL", cfg.Cache)
	}
	if cfg.Cache.CascadeMaxQueryLen != 80 {
		t.Errorf("CascadeMaxQueryLen = %d, want 80", cfg.Cache.CascadeMaxQueryLen)
	}
	if cfg.Resilience.MaxRetries != 5 || cfg.Resilience.BreakerThreshold != 5 || cfg.Resilience.BreakerCooldownSecs != 60 {
		t.Errorf("resilience = %+v", cfg.Resilience)
	}
	if cfg.Security.MaxRequestsPerMinute != 10 || cfg.Security.AuditKeep != 200 {
		t.Errorf("security = %+v", cfg.Security)
	}
	if cfg.Cloud.BaseURL == "" || cfg.Cloud.DefaultModel == "" {
		t.Errorf("cloud = %+v, want backend defaults", cfg.Cloud)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL())
	}
	if cfg.BreakerCooldown() != 60*time.Second {
		t.Errorf("BreakerCooldown = %v, want 60s", cfg.BreakerCooldown())
	}
}

// ===== ENVIRONMENT OVERRIDES =====

func TestApplyEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("DAILY_SPENDING_LIMIT", "25.50")
	t.Setenv("ALERT_THRESHOLD", "85")
	t.Setenv("MAX_REQUESTS_PER_MINUTE", "30")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("CIRCUIT_BREAKER_THRESHOLD", "3")
	t.Setenv("LLMGATE_API_KEY", "sk-env-key")
	t.Setenv("LLMGATE_MODEL", "openai/gpt-4o-mini")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Budget.DailyLimit != 25.50 {
		t.Errorf("DailyLimit = %v, want 25.50", cfg.Budget.DailyLimit)
	}
	if cfg.Budget.AlertThreshold != 85 {
		t.Errorf("AlertThreshold = %v, want 85", cfg.Budget.AlertThreshold)
	}
	if cfg.Security.MaxRequestsPerMinute != 30 {
		t.Errorf("MaxRequestsPerMinute = %d, want 30", cfg.Security.MaxRequestsPerMinute)
	}
	if cfg.Cache.TTLSeconds != 120 {
		t.Errorf("TTLSeconds = %d, want 120", cfg.Cache.TTLSeconds)
	}
	if cfg.Resilience.BreakerThreshold != 3 {
		t.Errorf("BreakerThreshold = %d, want 3", cfg.Resilience.BreakerThreshold)
	}
	if cfg.Cloud.APIKey != "sk-env-key" {
		t.Errorf("APIKey = %q", cfg.Cloud.APIKey)
	}
	if cfg.Cloud.DefaultModel != "openai/gpt-4o-mini" {
		t.Errorf("DefaultModel = %q", cfg.Cloud.DefaultModel)
	}
}

func TestApplyEnvOverridesIgnoresMalformed(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("DAILY_SPENDING_LIMIT", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Budget.DailyLimit != 100.00 {
		t.Errorf("malformed override changed DailyLimit to %v", cfg.Budget.DailyLimit)
	}
}

// ===== DEFAULTS FILLING =====

func TestSetDefaultsFillsZeros(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Budget.DailyLimit != 100.00 {
		t.Errorf("DailyLimit = %v", cfg.Budget.DailyLimit)
	}
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("TTLSeconds = %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Resilience.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.Resilience.MaxRetries)
	}
	if cfg.Cloud.BaseURL == "" {
		t.Error("BaseURL left empty")
	}
}

func TestSetDefaultsKeepsExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Budget.DailyLimit = 5
	cfg.Resilience.MaxRetries = 2
	cfg.SetDefaults()

	if cfg.Budget.DailyLimit != 5 {
		t.Errorf("explicit DailyLimit overwritten: %v", cfg.Budget.DailyLimit)
	}
	if cfg.Resilience.MaxRetries != 2 {
		t.Errorf("explicit MaxRetries overwritten: %d", cfg.Resilience.MaxRetries)
	}
}

// ===== VALIDATION =====

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative limit", func(c *Config) { c.Budget.DailyLimit = -1 }, "budget.daily_limit"},
		{"threshold over 100", func(c *Config) { c.Budget.AlertThreshold = 150 }, "budget.alert_threshold"},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }, "cache.ttl_seconds"},
		{"zero retries", func(c *Config) { c.Resilience.MaxRetries = 0 }, "resilience.max_retries"},
		{"zero breaker threshold", func(c *Config) { c.Resilience.BreakerThreshold = 0 }, "resilience.breaker_threshold"},
		{"zero rate limit", func(c *Config) { c.Security.MaxRequestsPerMinute = 0 }, "security.max_requests_per_minute"},
		{"bad moderation url", func(c *Config) { c.Security.ModerationURL = "ftp://nope" }, "security.moderation_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Budget.DailyLimit = -1
	cfg.Resilience.MaxRetries = 0

	err := cfg.Validate()
	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("err = %T, want ValidateErrors", err)
	}
	if len(errs) != 2 {
		t.Errorf("got %d validation errors, want 2", len(errs))
	}
}

// ===== LOADING =====

func TestLoadFromPathMissingFile(t *testing.T) {
	clearEnvOverrides(t)

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file returned error: %v", err)
	}
	if cfg.Budget.DailyLimit != 100.00 {
		t.Errorf("missing file did not yield defaults: %v", cfg.Budget.DailyLimit)
	}
}

func TestLoadFromPathPartialFile(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[budget]\ndaily_limit = 12.5\n\n[cache]\nenabled = false\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Budget.DailyLimit != 12.5 {
		t.Errorf("DailyLimit = %v, want 12.5 from file", cfg.Budget.DailyLimit)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled = true, file set false")
	}
	// Unset fields still come from defaults.
	if cfg.Budget.AlertThreshold != 70 {
		t.Errorf("AlertThreshold = %v, want default 70", cfg.Budget.AlertThreshold)
	}
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("TTLSeconds = %d, want default 3600", cfg.Cache.TTLSeconds)
	}
}

func TestLoadFromPathEnvWins(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("DAILY_SPENDING_LIMIT", "50")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[budget]\ndaily_limit = 12.5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Budget.DailyLimit != 50 {
		t.Errorf("DailyLimit = %v, env override should beat the file", cfg.Budget.DailyLimit)
	}
}

func TestLoadFromPathInvalidTOML(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[budget\nbroken"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("malformed TOML did not error")
	}
}

func TestLoadFromPathInvalidValues(t *testing.T) {
	clearEnvOverrides(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[budget]\ndaily_limit = -5.0\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("negative limit survived validation")
	}
}
