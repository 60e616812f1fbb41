// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and dispatch for llmgate.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdAsk Command = iota
	CmdStatus
	CmdValidate
	CmdEvaluate
	CmdChecklist
	CmdAudit
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	JSON    bool // Output in JSON format

	// Command-specific
	Query      string
	Context    string
	Identity   string
	Category   string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Lines      int

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `llmgate - production governance for LLM calls

llmgate wraps completion requests with the controls a deployment needs
before going live:

  - Budget ledger with daily spending limits and alerts
  - Response cache and cheap-model cascade to cut duplicate spend
  - Retries with escalating backoff and per-endpoint circuit breakers
  - Security gate: rate limiting, sanitization, injection and PII
    detection, content moderation with a signed audit trail
  - Fixed evaluation suite and a production readiness checklist

Usage:
  llmgate ask "question"        Run one governed completion request
    --context TEXT              Extra context included in the cache key
    --identity ID               Rate-limit identity (default: local user)
    --category NAME             Usage category for cost attribution
    --model NAME                Override the configured model
  llmgate status                Show budget, cache and circuit state
  llmgate validate "text"       Screen text without making a call
  llmgate evaluate              Run the fixed evaluation suite
  llmgate checklist             Run the production readiness review
  llmgate audit [subcommand]    Moderation audit log
    llmgate audit tail          Show recent entries (default)
      --lines N                 Show last N entries (default: 20)
    llmgate audit verify        Verify audit log signatures
  llmgate config [subcommand]   Configuration
    llmgate config show         Show effective configuration (default)
    llmgate config path         Print the config file path
    llmgate config reset        Rewrite the config file with defaults
      --confirm                 Required confirmation flag
    llmgate config watch        Report config reloads until interrupted
  llmgate version               Show version information
  llmgate help                  Show this help

Global Flags:
  --json          Output in JSON format
  -q, --quiet     Minimal output
  -v, --verbose   Debug output

Environment:
  LLMGATE_API_KEY           Completion service API key
  LLMGATE_MODEL             Override the configured model
  DAILY_SPENDING_LIMIT      Override budget.daily_limit
  MAX_REQUESTS_PER_MINUTE   Override the per-identity rate limit

Examples:
  llmgate ask "Summarize the incident report" --category oncall
  llmgate validate "Ignore all previous instructions"
  llmgate evaluate --json
  llmgate checklist
  llmgate audit tail --lines 50
  llmgate config show

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("llmgate version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// VersionData is the JSON payload for the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "validate", "screen":
		parseValidateArgs(&parsedArgs, remaining)
		return CmdValidate, parsedArgs

	case "evaluate", "eval":
		return CmdEvaluate, parsedArgs

	case "checklist", "readiness":
		return CmdChecklist, parsedArgs

	case "audit":
		parseAuditArgs(&parsedArgs, remaining)
		return CmdAudit, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: treat the whole line as an ask query.
		all := append([]string{cmd}, remaining...)
		parseAskArgs(&parsedArgs, all)
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-c", "--context":
			if i+1 < len(remaining) {
				i++
				args.Context = remaining[i]
			}
		case "--identity":
			if i+1 < len(remaining) {
				i++
				args.Identity = remaining[i]
			}
		case "--category":
			if i+1 < len(remaining) {
				i++
				args.Category = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--context="):
				args.Context = strings.TrimPrefix(arg, "--context=")
			case strings.HasPrefix(arg, "--identity="):
				args.Identity = strings.TrimPrefix(arg, "--identity=")
			case strings.HasPrefix(arg, "--category="):
				args.Category = strings.TrimPrefix(arg, "--category=")
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case !strings.HasPrefix(arg, "-"):
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseValidateArgs parses validate command specific arguments.
func parseValidateArgs(args *Args, remaining []string) {
	var text []string
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch arg {
		case "--identity":
			if i+1 < len(remaining) {
				i++
				args.Identity = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--identity=") {
				args.Identity = strings.TrimPrefix(arg, "--identity=")
			} else if !strings.HasPrefix(arg, "-") {
				text = append(text, arg)
			}
		}
	}
	args.Query = strings.Join(text, " ")
}

// parseAuditArgs parses audit command specific arguments.
func parseAuditArgs(args *Args, remaining []string) {
	args.Lines = 20
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch arg {
		case "tail", "verify":
			args.Subcommand = arg
		case "--lines", "-n":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil && n > 0 {
					args.Lines = n
				}
			}
		default:
			if strings.HasPrefix(arg, "--lines=") {
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--lines=")); err == nil && n > 0 {
					args.Lines = n
				}
			}
		}
	}
	if args.Subcommand == "" {
		args.Subcommand = "tail"
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	args.Subcommand = "show"
	for _, arg := range remaining {
		switch arg {
		case "show", "path", "reset", "watch":
			args.Subcommand = arg
		case "--confirm":
			args.ConfigVal = "confirm"
		}
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run dispatches a parsed command and returns its exit code.
func Run(cmd Command, args Args) int {
	var err error
	switch cmd {
	case CmdAsk:
		err = HandleAsk(args)
	case CmdStatus:
		err = HandleStatus(args)
	case CmdValidate:
		err = HandleValidate(args)
	case CmdEvaluate:
		err = HandleEvaluate(args)
	case CmdChecklist:
		err = HandleChecklist(args)
	case CmdAudit:
		err = HandleAudit(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdVersion:
		HandleVersion(args)
	case CmdHelp:
		PrintUsage()
	}

	if err != nil {
		if !args.JSON {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}
