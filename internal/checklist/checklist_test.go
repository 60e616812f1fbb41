// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package checklist

import (
	"testing"

	"github.com/jeranaias/llmgate/internal/config"
)

// fullEnv returns an Env that every check should accept.
func fullEnv(t *testing.T) *Env {
	t.Helper()
	return &Env{
		Config:        config.Default(),
		APIKey:        "sk-or-v1-test",
		HaveLedger:    true,
		HaveCache:     true,
		HaveBreaker:   true,
		HaveGate:      true,
		HaveModerator: false,
		AuditDir:      t.TempDir(),
	}
}

func resultByName(t *testing.T, report Report, name string) Result {
	t.Helper()
	for _, r := range report.Results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no %q result in report", name)
	return Result{}
}

func TestChecksSuiteShape(t *testing.T) {
	checks := Checks()
	if len(checks) != 12 {
		t.Fatalf("suite has %d checks, want 12", len(checks))
	}

	wantOrder := []string{
		"api_keys", "env_vars", "spending_limits", "logging",
		"tests", "error_handling", "security", "validation",
		"monitoring", "cost_tracking", "alerts", "performance",
	}
	for i, c := range checks {
		if c.Name != wantOrder[i] {
			t.Errorf("check %d = %q, want %q", i, c.Name, wantOrder[i])
		}
		if c.Run == nil {
			t.Errorf("check %q has no Run func", c.Name)
		}
	}
}

func TestRunAllFullyWired(t *testing.T) {
	report := RunAll(fullEnv(t))

	if !report.Ready {
		for _, r := range report.Results {
			if !r.Passed {
				t.Logf("%s failed: %s", r.Name, r.Message)
			}
		}
		t.Fatal("fully wired environment not ready")
	}
	if report.Score != 100 {
		t.Errorf("Score = %d, want 100", report.Score)
	}
	if report.Passed != 12 || report.Failed != 0 {
		t.Errorf("Passed/Failed = %d/%d, want 12/0", report.Passed, report.Failed)
	}
}

func TestRunAllNilEnv(t *testing.T) {
	// Nothing wired: the report must still cover all twelve checks
	// without panicking.
	report := RunAll(nil)

	if len(report.Results) != 12 {
		t.Fatalf("got %d results, want 12", len(report.Results))
	}
	if report.Ready {
		t.Error("empty environment reported ready")
	}
	if r := resultByName(t, report, "api_keys"); r.Passed {
		t.Error("api_keys passed with no key")
	}
}

func TestRunAllMissingAPIKey(t *testing.T) {
	env := fullEnv(t)
	env.APIKey = ""

	report := RunAll(env)
	r := resultByName(t, report, "api_keys")
	if r.Passed {
		t.Fatal("api_keys passed with empty key")
	}
	if r.Fix == "" {
		t.Error("failing check has no fix hint")
	}
	if report.Ready {
		t.Error("report ready despite failing check")
	}
}

func TestRunAllBadKeyFormat(t *testing.T) {
	env := fullEnv(t)
	env.APIKey = "not-a-real-key"

	if r := resultByName(t, RunAll(env), "api_keys"); r.Passed {
		t.Error("malformed key accepted")
	}
}

func TestRunAllZeroDailyLimit(t *testing.T) {
	env := fullEnv(t)
	env.Config.Budget.DailyLimit = 0

	report := RunAll(env)
	if r := resultByName(t, report, "spending_limits"); r.Passed {
		t.Error("spending_limits passed with zero limit")
	}
	if report.Score != 92 {
		// 11/12 rounds to 92.
		t.Errorf("Score = %d, want 92", report.Score)
	}
}

func TestRunAllCacheDisabled(t *testing.T) {
	env := fullEnv(t)
	env.Config.Cache.Enabled = false

	if r := resultByName(t, RunAll(env), "performance"); r.Passed {
		t.Error("performance passed with cache disabled")
	}
}

func TestRunAllAlertThresholdBounds(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		pass      bool
	}{
		{"zero", 0, false},
		{"valid", 70, true},
		{"hundred", 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := fullEnv(t)
			env.Config.Budget.AlertThreshold = tt.threshold
			r := resultByName(t, RunAll(env), "alerts")
			if r.Passed != tt.pass {
				t.Errorf("alerts passed=%v at threshold %v, want %v", r.Passed, tt.threshold, tt.pass)
			}
		})
	}
}

func TestRunSafeRecoversPanic(t *testing.T) {
	c := Check{Name: "explosive", Run: func(*Env) Result {
		panic("boom")
	}}

	res := runSafe(c, &Env{Config: config.Default()})
	if res.Passed {
		t.Error("panicking check reported passed")
	}
	if res.Name != "explosive" {
		t.Errorf("Name = %q", res.Name)
	}
}

func TestScoreRounding(t *testing.T) {
	tests := []struct {
		passed, total, want int
	}{
		{0, 12, 0},
		{6, 12, 50},
		{11, 12, 92},
		{12, 12, 100},
		{1, 3, 33},
		{2, 3, 67},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := score(tt.passed, tt.total); got != tt.want {
			t.Errorf("score(%d, %d) = %d, want %d", tt.passed, tt.total, got, tt.want)
		}
	}
}
