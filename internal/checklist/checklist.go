// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// checklist.go - Readiness checks and scoring.
package checklist

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/llmgate/internal/config"
	"github.com/jeranaias/llmgate/internal/evaluate"
	"github.com/jeranaias/llmgate/internal/moderation"
	"github.com/jeranaias/llmgate/internal/security"
)

// =============================================================================
// TYPES
// =============================================================================

// Result is the outcome of a single readiness check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// Report is the outcome of a full review.
type Report struct {
	Score   int      `json:"score"` // 0-100, rounded
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Ready   bool     `json:"ready"` // every check passed
	Results []Result `json:"results"`
}

// Env describes the system under review. Component fields report what the
// caller actually wired; the checklist never constructs components itself.
type Env struct {
	Config *config.Config

	APIKey string // resolved key, may be empty

	HaveLedger    bool
	HaveCache     bool
	HaveBreaker   bool
	HaveGate      bool
	HaveModerator bool

	// AuditDir is where moderation / audit artifacts land. Empty means
	// the default config directory.
	AuditDir string
}

// Check is one readiness probe.
type Check struct {
	Name string
	Run  func(*Env) Result
}

// =============================================================================
// REVIEW
// =============================================================================

// Checks returns the fixed twelve-check suite in review order.
func Checks() []Check {
	return []Check{
		{Name: "api_keys", Run: checkAPIKeys},
		{Name: "env_vars", Run: checkEnvVars},
		{Name: "spending_limits", Run: checkSpendingLimits},
		{Name: "logging", Run: checkLogging},
		{Name: "tests", Run: checkTests},
		{Name: "error_handling", Run: checkErrorHandling},
		{Name: "security", Run: checkSecurity},
		{Name: "validation", Run: checkValidation},
		{Name: "monitoring", Run: checkMonitoring},
		{Name: "cost_tracking", Run: checkCostTracking},
		{Name: "alerts", Run: checkAlerts},
		{Name: "performance", Run: checkPerformance},
	}
}

// RunAll executes every check against env. A panicking check is recorded
// as failed and the remaining checks still run.
func RunAll(env *Env) Report {
	if env == nil {
		env = &Env{}
	}
	if env.Config == nil {
		env.Config = config.Default()
	}

	checks := Checks()
	report := Report{Results: make([]Result, 0, len(checks))}
	for _, c := range checks {
		report.Results = append(report.Results, runSafe(c, env))
	}
	for _, r := range report.Results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Score = score(report.Passed, len(report.Results))
	report.Ready = report.Failed == 0
	return report
}

func runSafe(c Check, env *Env) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Name:    c.Name,
				Passed:  false,
				Message: fmt.Sprintf("check panicked: %v", r),
			}
		}
	}()
	res = c.Run(env)
	res.Name = c.Name
	return res
}

// score rounds 100*passed/total to the nearest integer.
func score(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

// =============================================================================
// CHECKS
// =============================================================================

func checkAPIKeys(env *Env) Result {
	if env.APIKey == "" {
		return Result{
			Passed:  false,
			Message: "no API key configured",
			Fix:     "Set LLMGATE_API_KEY or cloud.api_key in config",
		}
	}
	if !strings.HasPrefix(env.APIKey, "sk-") {
		return Result{
			Passed:  false,
			Message: "API key format looks invalid",
			Fix:     "Get a key from https://openrouter.ai/keys",
		}
	}
	return Result{Passed: true, Message: "API key configured via environment"}
}

func checkEnvVars(env *Env) Result {
	dir := env.AuditDir
	if dir == "" {
		var err error
		dir, err = config.Dir()
		if err != nil {
			return Result{
				Passed:  false,
				Message: fmt.Sprintf("could not resolve config directory: %s", err),
			}
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Result{
			Passed:  false,
			Message: fmt.Sprintf("config directory not usable: %s", err),
			Fix:     fmt.Sprintf("Check permissions on %s", dir),
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("environment resolved (%s)", dir)}
}

func checkSpendingLimits(env *Env) Result {
	limit := env.Config.Budget.DailyLimit
	if limit <= 0 {
		return Result{
			Passed:  false,
			Message: "no daily spending limit set",
			Fix:     "Set budget.daily_limit above zero",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("daily spending limit $%.2f", limit)}
}

func checkLogging(env *Env) Result {
	dir := env.AuditDir
	if dir == "" {
		var err error
		dir, err = config.Dir()
		if err != nil {
			return Result{Passed: false, Message: fmt.Sprintf("could not resolve log directory: %s", err)}
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Result{Passed: false, Message: fmt.Sprintf("log directory not writable: %s", err)}
	}
	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		return Result{
			Passed:  false,
			Message: fmt.Sprintf("log directory not writable: %s", err),
			Fix:     fmt.Sprintf("Check permissions on %s", dir),
		}
	}
	os.Remove(probe)
	return Result{Passed: true, Message: "moderation log directory writable"}
}

func checkTests(env *Env) Result {
	cases := evaluate.StandardCases()
	if len(cases) == 0 {
		return Result{Passed: false, Message: "evaluation suite is empty"}
	}
	byCat := map[evaluate.Category]int{}
	for _, c := range cases {
		byCat[c.Category]++
	}
	if byCat[evaluate.CategoryEdge] == 0 || byCat[evaluate.CategoryAdversarial] == 0 {
		return Result{
			Passed:  false,
			Message: "evaluation suite missing edge or adversarial coverage",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf(
		"evaluation suite defined (%d cases: %d normal, %d edge, %d adversarial)",
		len(cases), byCat[evaluate.CategoryNormal], byCat[evaluate.CategoryEdge],
		byCat[evaluate.CategoryAdversarial])}
}

func checkErrorHandling(env *Env) Result {
	r := env.Config.Resilience
	if r.MaxRetries <= 0 {
		return Result{
			Passed:  false,
			Message: "retry policy disabled",
			Fix:     "Set resilience.max_retries above zero",
		}
	}
	if !env.HaveBreaker {
		return Result{
			Passed:  false,
			Message: "circuit breaker not wired",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf(
		"retries (%d max) with circuit breaker (threshold %d)", r.MaxRetries, r.BreakerThreshold)}
}

func checkSecurity(env *Env) Result {
	if len(security.InjectionPhrases) == 0 || len(moderation.HeuristicKeywords) == 0 {
		return Result{Passed: false, Message: "detection phrase lists are empty"}
	}
	if !env.HaveModerator {
		return Result{
			Passed:  true,
			Message: "heuristic moderation active (no backend configured)",
		}
	}
	return Result{Passed: true, Message: "moderation backend and heuristic fallback active"}
}

func checkValidation(env *Env) Result {
	if !env.HaveGate {
		return Result{
			Passed:  false,
			Message: "input validation gate not wired",
		}
	}
	return Result{Passed: true, Message: "input sanitization and injection detection active"}
}

func checkMonitoring(env *Env) Result {
	keep := env.Config.Security.AuditKeep
	if keep <= 0 {
		return Result{
			Passed:  false,
			Message: "audit retention disabled",
			Fix:     "Set security.audit_keep above zero",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("audit trail retains last %d entries", keep)}
}

func checkCostTracking(env *Env) Result {
	b := env.Config.Budget
	if !env.HaveLedger {
		return Result{Passed: false, Message: "budget ledger not wired"}
	}
	if b.InputRate <= 0 || b.OutputRate <= 0 {
		return Result{
			Passed:  false,
			Message: "token rates not configured",
			Fix:     "Set budget.input_rate and budget.output_rate",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf(
		"per-call cost tracking at $%.2f in / $%.2f out per 1M tokens", b.InputRate, b.OutputRate)}
}

func checkAlerts(env *Env) Result {
	t := env.Config.Budget.AlertThreshold
	if t <= 0 || t >= 100 {
		return Result{
			Passed:  false,
			Message: fmt.Sprintf("alert threshold %.0f%% is outside (0, 100)", t),
			Fix:     "Set budget.alert_threshold between 1 and 99",
		}
	}
	return Result{Passed: true, Message: fmt.Sprintf("budget alerts fire at %.0f%%", t)}
}

func checkPerformance(env *Env) Result {
	c := env.Config.Cache
	if !env.HaveCache || !c.Enabled {
		return Result{
			Passed:  false,
			Message: "response cache disabled",
			Fix:     "Enable cache.enabled to cut duplicate spend",
		}
	}
	if c.TTLSeconds <= 0 {
		return Result{Passed: false, Message: "cache TTL must be above zero"}
	}
	return Result{Passed: true, Message: fmt.Sprintf("response cache enabled (TTL %ds)", c.TTLSeconds)}
}
