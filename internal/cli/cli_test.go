// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"strings"
	"testing"
)

// ===== GLOBAL FLAGS =====

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		remaining []string
		check     func(t *testing.T, a Args)
	}{
		{
			name:      "no flags",
			input:     []string{"ask", "hello"},
			remaining: []string{"ask", "hello"},
			check:     func(t *testing.T, a Args) {},
		},
		{
			name:      "quiet short",
			input:     []string{"-q", "status"},
			remaining: []string{"status"},
			check: func(t *testing.T, a Args) {
				if !a.Quiet {
					t.Error("Quiet not set")
				}
			},
		},
		{
			name:      "json",
			input:     []string{"status", "--json"},
			remaining: []string{"status"},
			check: func(t *testing.T, a Args) {
				if !a.JSON {
					t.Error("JSON not set")
				}
			},
		},
		{
			name:      "model with value",
			input:     []string{"--model", "openai/gpt-4o-mini", "ask", "hi"},
			remaining: []string{"ask", "hi"},
			check: func(t *testing.T, a Args) {
				if a.Model != "openai/gpt-4o-mini" {
					t.Errorf("Model = %q", a.Model)
				}
			},
		},
		{
			name:      "model equals form",
			input:     []string{"--model=meta-llama/llama-3-70b", "status"},
			remaining: []string{"status"},
			check: func(t *testing.T, a Args) {
				if a.Model != "meta-llama/llama-3-70b" {
					t.Errorf("Model = %q", a.Model)
				}
			},
		},
		{
			name:      "model missing value",
			input:     []string{"status", "--model"},
			remaining: []string{"status"},
			check: func(t *testing.T, a Args) {
				if a.Model != "" {
					t.Errorf("Model = %q, want empty", a.Model)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, args := parseGlobalFlags(tt.input)
			if strings.Join(remaining, " ") != strings.Join(tt.remaining, " ") {
				t.Errorf("remaining = %v, want %v", remaining, tt.remaining)
			}
			tt.check(t, args)
		})
	}
}

// ===== ASK =====

func TestParseAskArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		query    string
		context  string
		identity string
		category string
	}{
		{
			name:  "bare query",
			input: []string{"what", "is", "ai"},
			query: "what is ai",
		},
		{
			name:    "context flag",
			input:   []string{"-c", "from earlier", "what", "next"},
			query:   "what next",
			context: "from earlier",
		},
		{
			name:     "identity and category",
			input:    []string{"--identity", "agent-7", "--category", "research", "summarize"},
			query:    "summarize",
			identity: "agent-7",
			category: "research",
		},
		{
			name:     "equals forms",
			input:    []string{"--identity=bot", "--category=ops", "--context=prior", "ping"},
			query:    "ping",
			identity: "bot",
			category: "ops",
			context:  "prior",
		},
		{
			name:  "unknown flags dropped from query",
			input: []string{"--frobnicate", "real", "words"},
			query: "real words",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args Args
			parseAskArgs(&args, tt.input)
			if args.Query != tt.query {
				t.Errorf("Query = %q, want %q", args.Query, tt.query)
			}
			if args.Context != tt.context {
				t.Errorf("Context = %q, want %q", args.Context, tt.context)
			}
			if args.Identity != tt.identity {
				t.Errorf("Identity = %q, want %q", args.Identity, tt.identity)
			}
			if args.Category != tt.category {
				t.Errorf("Category = %q, want %q", args.Category, tt.category)
			}
		})
	}
}

func TestParseAskArgsModelFlag(t *testing.T) {
	var args Args
	parseAskArgs(&args, []string{"-m", "openai/gpt-4o-mini", "query", "text"})
	if args.Model != "openai/gpt-4o-mini" {
		t.Errorf("Model = %q", args.Model)
	}
	if args.Query != "query text" {
		t.Errorf("Query = %q", args.Query)
	}
}

// ===== VALIDATE =====

func TestParseValidateArgs(t *testing.T) {
	var args Args
	parseValidateArgs(&args, []string{"--identity", "ci", "some", "input", "text"})
	if args.Identity != "ci" {
		t.Errorf("Identity = %q", args.Identity)
	}
	if args.Query != "some input text" {
		t.Errorf("Query = %q", args.Query)
	}
}

// ===== AUDIT =====

func TestParseAuditArgs(t *testing.T) {
	tests := []struct {
		name       string
		input      []string
		subcommand string
		lines      int
	}{
		{"default", nil, "tail", 20},
		{"tail explicit", []string{"tail"}, "tail", 20},
		{"verify", []string{"verify"}, "verify", 20},
		{"lines flag", []string{"tail", "--lines", "50"}, "tail", 50},
		{"lines short", []string{"-n", "5"}, "tail", 5},
		{"lines equals", []string{"--lines=7"}, "tail", 7},
		{"lines invalid", []string{"--lines", "zero"}, "tail", 20},
		{"lines negative", []string{"--lines", "-3"}, "tail", 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args Args
			parseAuditArgs(&args, tt.input)
			if args.Subcommand != tt.subcommand {
				t.Errorf("Subcommand = %q, want %q", args.Subcommand, tt.subcommand)
			}
			if args.Lines != tt.lines {
				t.Errorf("Lines = %d, want %d", args.Lines, tt.lines)
			}
		})
	}
}

// ===== CONFIG =====

func TestParseConfigArgs(t *testing.T) {
	tests := []struct {
		name       string
		input      []string
		subcommand string
		confirmed  bool
	}{
		{"default show", nil, "show", false},
		{"path", []string{"path"}, "path", false},
		{"watch", []string{"watch"}, "watch", false},
		{"reset unconfirmed", []string{"reset"}, "reset", false},
		{"reset confirmed", []string{"reset", "--confirm"}, "reset", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args Args
			parseConfigArgs(&args, tt.input)
			if args.Subcommand != tt.subcommand {
				t.Errorf("Subcommand = %q, want %q", args.Subcommand, tt.subcommand)
			}
			if got := args.ConfigVal == "confirm"; got != tt.confirmed {
				t.Errorf("confirmed = %v, want %v", got, tt.confirmed)
			}
		})
	}
}

// ===== SECRETS =====

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "abc", "********"},
		{"exactly eight", "12345678", "********"},
		{"long key", "sk-or-v1-abcdef123456", "sk-o...56"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactSecret(tt.input); got != tt.want {
				t.Errorf("redactSecret(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ===== JSON ENVELOPE =====

func TestJSONResponse(t *testing.T) {
	r := NewJSONResponse("status", map[string]string{"state": "ok"})
	if !r.Success {
		t.Error("Success false")
	}
	if r.Command != "status" {
		t.Errorf("Command = %q", r.Command)
	}
	s := r.String()
	if !strings.Contains(s, `"success": true`) || !strings.Contains(s, `"state": "ok"`) {
		t.Errorf("String() = %s", s)
	}
}

func TestJSONErrorResponse(t *testing.T) {
	r := NewJSONErrorResponse("ask", errors.New("test failure"))
	if r.Success {
		t.Error("Success true for error response")
	}
	if !strings.Contains(r.String(), "test failure") {
		t.Errorf("String() = %s", r.String())
	}
}
