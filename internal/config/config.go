// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for llmgate.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.llmgate/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete llmgate configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Budget configuration
	Budget BudgetConfig `toml:"budget" json:"budget"`

	// Cache configuration
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Resilience configuration
	Resilience ResilienceConfig `toml:"resilience" json:"resilience"`

	// Security configuration
	Security SecurityConfig `toml:"security" json:"security"`

	// Cloud (completion backend) configuration
	Cloud CloudConfig `toml:"cloud" json:"cloud"`
}

// BudgetConfig contains spend tracking configuration.
type BudgetConfig struct {
	// DailyLimit is the daily spending limit in dollars.
	DailyLimit float64 `toml:"daily_limit" json:"daily_limit"`
	// AlertThreshold is the warning threshold as a percentage of DailyLimit.
	AlertThreshold float64 `toml:"alert_threshold" json:"alert_threshold"`
	// InputRate is the cost per million input tokens in dollars.
	InputRate float64 `toml:"input_rate" json:"input_rate"`
	// OutputRate is the cost per million output tokens in dollars.
	OutputRate float64 `toml:"output_rate" json:"output_rate"`
	// ArchivePath is the sqlite database for completed ledger sessions
	// (empty = ~/.llmgate/spend.db).
	ArchivePath string `toml:"archive_path" json:"archive_path"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// Enabled controls whether caching is active
	Enabled bool `toml:"enabled" json:"enabled"`
	// TTLSeconds is the time-to-live for cache entries in seconds
	TTLSeconds int `toml:"ttl_seconds" json:"ttl_seconds"`
	// CascadeEnabled routes short queries to a cheaper model first
	CascadeEnabled bool `toml:"cascade_enabled" json:"cascade_enabled"`
	// CascadeMaxQueryLen is the query length below which the cheap model is tried
	CascadeMaxQueryLen int `toml:"cascade_max_query_len" json:"cascade_max_query_len"`
	// CheapModel is the model used for cascade first attempts
	CheapModel string `toml:"cheap_model" json:"cheap_model"`
}

// ResilienceConfig contains retry and circuit-breaker configuration.
type ResilienceConfig struct {
	// MaxRetries is the maximum number of attempts per call
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// BreakerThreshold is the consecutive-failure count that opens a circuit
	BreakerThreshold int `toml:"breaker_threshold" json:"breaker_threshold"`
	// BreakerCooldownSecs is how long an open circuit waits before half-open
	BreakerCooldownSecs int `toml:"breaker_cooldown_secs" json:"breaker_cooldown_secs"`
}

// SecurityConfig contains security screening configuration.
type SecurityConfig struct {
	// MaxRequestsPerMinute is the per-identity sliding-window rate limit
	MaxRequestsPerMinute int `toml:"max_requests_per_minute" json:"max_requests_per_minute"`
	// ModerationURL is the external moderation endpoint (empty = heuristic only)
	ModerationURL string `toml:"moderation_url" json:"moderation_url"`
	// ModerationKey is the API key for the moderation endpoint
	ModerationKey string `toml:"moderation_key" json:"moderation_key"`
	// AuditLogPath is the moderation audit log (empty = ~/.llmgate/moderation.jsonl)
	AuditLogPath string `toml:"audit_log_path" json:"audit_log_path"`
	// AuditKeep is how many recent moderation entries stay in memory
	AuditKeep int `toml:"audit_keep" json:"audit_keep"`
}

// CloudConfig contains completion backend configuration.
type CloudConfig struct {
	// APIKey is the completion service API key
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL is the completion service base URL
	BaseURL string `toml:"base_url" json:"base_url"`
	// DefaultModel is the strong model used when no cascade applies
	DefaultModel string `toml:"default_model" json:"default_model"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Budget: BudgetConfig{
			DailyLimit:     100.00,
			AlertThreshold: 70.0,
			InputRate:      5.00,
			OutputRate:     15.00,
		},

		Cache: CacheConfig{
			Enabled:            true,
			TTLSeconds:         3600,
			CascadeEnabled:     true,
			CascadeMaxQueryLen: 80,
			CheapModel:         "openai/gpt-4o-mini",
		},

		Resilience: ResilienceConfig{
			MaxRetries:          5,
			BreakerThreshold:    5,
			BreakerCooldownSecs: 60,
		},

		Security: SecurityConfig{
			MaxRequestsPerMinute: 10,
			AuditKeep:            200,
		},

		Cloud: CloudConfig{
			BaseURL:      "https://openrouter.ai/api/v1",
			DefaultModel: "openai/gpt-4o",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the llmgate configuration directory (~/.llmgate).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".llmgate"), nil
}

// Path returns the TOML config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from disk, applies environment overrides,
// fills defaults and validates. A missing file is not an error: defaults
// are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default path as TOML.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DAILY_SPENDING_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Budget.DailyLimit = f
		}
	}
	if v := os.Getenv("ALERT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Budget.AlertThreshold = f
		}
	}
	if v := os.Getenv("MAX_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Security.MaxRequestsPerMinute = n
		}
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLSeconds = n
		}
	}
	if v := os.Getenv("CIRCUIT_BREAKER_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Resilience.BreakerThreshold = n
		}
	}
	if v := os.Getenv("LLMGATE_API_KEY"); v != "" {
		c.Cloud.APIKey = v
	}
	if v := os.Getenv("LLMGATE_BASE_URL"); v != "" {
		c.Cloud.BaseURL = v
	}
	if v := os.Getenv("LLMGATE_MODEL"); v != "" {
		c.Cloud.DefaultModel = v
	}
	if v := os.Getenv("LLMGATE_MODERATION_URL"); v != "" {
		c.Security.ModerationURL = v
	}
	if v := os.Getenv("LLMGATE_MODERATION_KEY"); v != "" {
		c.Security.ModerationKey = v
	}
}

// SetDefaults fills zero values left by partial config files.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Budget.DailyLimit == 0 {
		c.Budget.DailyLimit = d.Budget.DailyLimit
	}
	if c.Budget.AlertThreshold == 0 {
		c.Budget.AlertThreshold = d.Budget.AlertThreshold
	}
	if c.Budget.InputRate == 0 {
		c.Budget.InputRate = d.Budget.InputRate
	}
	if c.Budget.OutputRate == 0 {
		c.Budget.OutputRate = d.Budget.OutputRate
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = d.Cache.TTLSeconds
	}
	if c.Cache.CascadeMaxQueryLen == 0 {
		c.Cache.CascadeMaxQueryLen = d.Cache.CascadeMaxQueryLen
	}
	if c.Cache.CheapModel == "" {
		c.Cache.CheapModel = d.Cache.CheapModel
	}
	if c.Resilience.MaxRetries == 0 {
		c.Resilience.MaxRetries = d.Resilience.MaxRetries
	}
	if c.Resilience.BreakerThreshold == 0 {
		c.Resilience.BreakerThreshold = d.Resilience.BreakerThreshold
	}
	if c.Resilience.BreakerCooldownSecs == 0 {
		c.Resilience.BreakerCooldownSecs = d.Resilience.BreakerCooldownSecs
	}
	if c.Security.MaxRequestsPerMinute == 0 {
		c.Security.MaxRequestsPerMinute = d.Security.MaxRequestsPerMinute
	}
	if c.Security.AuditKeep == 0 {
		c.Security.AuditKeep = d.Security.AuditKeep
	}
	if c.Cloud.BaseURL == "" {
		c.Cloud.BaseURL = d.Cloud.BaseURL
	}
	if c.Cloud.DefaultModel == "" {
		c.Cloud.DefaultModel = d.Cloud.DefaultModel
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Budget.DailyLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "budget.daily_limit",
			Message: "cannot be negative",
		})
	}
	if c.Budget.AlertThreshold < 0 || c.Budget.AlertThreshold > 100 {
		errs = append(errs, ValidationError{
			Field:   "budget.alert_threshold",
			Message: fmt.Sprintf("must be 0-100, got %.1f", c.Budget.AlertThreshold),
		})
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.ttl_seconds",
			Message: "cannot be negative",
		})
	}
	if c.Resilience.MaxRetries < 1 {
		errs = append(errs, ValidationError{
			Field:   "resilience.max_retries",
			Message: "must be at least 1",
		})
	}
	if c.Resilience.BreakerThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "resilience.breaker_threshold",
			Message: "must be at least 1",
		})
	}
	if c.Security.MaxRequestsPerMinute < 1 {
		errs = append(errs, ValidationError{
			Field:   "security.max_requests_per_minute",
			Message: "must be at least 1",
		})
	}
	if c.Security.ModerationURL != "" && !strings.HasPrefix(c.Security.ModerationURL, "http") {
		errs = append(errs, ValidationError{
			Field:   "security.moderation_url",
			Message: "must be an http(s) URL",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// BreakerCooldown returns the circuit-breaker cool-down as a duration.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Resilience.BreakerCooldownSecs) * time.Second
}
