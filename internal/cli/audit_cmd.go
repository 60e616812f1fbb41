// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - Moderation audit log inspection.
//
// Command: audit [tail|verify]
//
// Subcommands:
//   tail      Show recent entries (default)
//     --lines N
//   verify    Verify HMAC signatures across the whole log file
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/llmgate/internal/security"
)

// HandleAudit handles the "audit" command.
func HandleAudit(args Args) error {
	stack, err := BuildStack()
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "verify":
		return handleAuditVerify(stack, args)
	default:
		return handleAuditTail(stack, args)
	}
}

func handleAuditTail(stack *Stack, args Args) error {
	entries, err := readAuditEntries(stack.Audit.Path(), args.Lines)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("audit", entries).Print()
	}

	if len(entries) == 0 {
		fmt.Println("audit log is empty")
		return nil
	}

	fmt.Println()
	fmt.Println(RenderConditional(TitleStyle, "Moderation Audit Log"))
	fmt.Println(RenderSeparator())
	for _, e := range entries {
		status := "ok"
		if e.Blocked {
			status = "fail"
		}
		fmt.Printf("%s %s %s\n", RenderStatus(status),
			RenderConditional(DimStyle, e.Timestamp.Format("2006-01-02 15:04:05")),
			RenderConditional(ValueStyle, e.Snippet))
	}
	fmt.Println()
	return nil
}

func handleAuditVerify(stack *Stack, args Args) error {
	result, err := stack.Audit.Verify()
	if err != nil {
		return err
	}

	if args.JSON {
		resp := NewJSONResponse("audit", result)
		if result.Invalid > 0 {
			errMsg := fmt.Sprintf("%d entries failed signature verification", result.Invalid)
			resp.Success = false
			resp.Error = &errMsg
		}
		if pErr := resp.Print(); pErr != nil {
			return pErr
		}
		if result.Invalid > 0 {
			return fmt.Errorf("%d entries failed signature verification", result.Invalid)
		}
		return nil
	}

	fmt.Printf("%d entries: %d valid, %d invalid, %d unsigned\n",
		result.Lines, result.Valid, result.Invalid, result.Unsigned)
	if result.Invalid > 0 {
		fmt.Println(RenderConditional(ErrorStyle, "audit log integrity check FAILED"))
		return fmt.Errorf("%d entries failed signature verification", result.Invalid)
	}
	fmt.Println(RenderConditional(SuccessStyle, "audit log integrity verified"))
	return nil
}

// readAuditEntries reads the last n entries from the JSONL log file.
// Unparseable lines are skipped; the verify subcommand reports them.
func readAuditEntries(path string, n int) ([]security.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []security.LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e security.LogEntry
		if json.Unmarshal(scanner.Bytes(), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
