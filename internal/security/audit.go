// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit.go - Append-only moderation audit log with per-line HMAC signatures.
package security

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/llmgate/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// MaxSnippetLength is the maximum length of text snippet stored per entry.
// Bounded snippets keep raw content leakage out of logs.
const MaxSnippetLength = 400

// DefaultAuditKeep is how many recent entries stay in memory.
const DefaultAuditKeep = 200

// hmacIterations is the pbkdf2 iteration count for signing-key derivation.
const hmacIterations = 10_000

// =============================================================================
// LOG ENTRY
// =============================================================================

// LogEntry is a single moderation audit record. Never mutated after creation.
type LogEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Snippet   string         `json:"text_snippet"`
	Blocked   bool           `json:"blocked"`
	Detail    map[string]any `json:"details,omitempty"`
	Signature string         `json:"sig,omitempty"`
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AuditLog is the append-only moderation trail: a bounded in-memory ring of
// recent entries plus a durable line-delimited JSON file. Each persisted
// line is signed with HMAC-SHA256 so tampering is detectable.
type AuditLog struct {
	mu     sync.Mutex
	path   string
	keep   int
	recent []LogEntry
	sigKey []byte
}

// NewAuditLog opens (creating if needed) the audit log at path. An empty
// path defaults to ~/.llmgate/moderation.jsonl. keep bounds the in-memory
// entry count; zero means DefaultAuditKeep.
func NewAuditLog(path string, keep int) (*AuditLog, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".llmgate", "moderation.jsonl")
	}
	if keep <= 0 {
		keep = DefaultAuditKeep
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	key, err := loadSigningKey(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load audit signing key: %w", err)
	}

	return &AuditLog{path: path, keep: keep, sigKey: key}, nil
}

// Append records a moderation attempt. The snippet is truncated before
// storage and the persisted line is HMAC-signed. Append never fails the
// request path: file errors leave the in-memory entry intact.
func (a *AuditLog) Append(text string, blocked bool, detail map[string]any) LogEntry {
	entry := LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Snippet:   util.TruncateRunes(text, MaxSnippetLength),
		Blocked:   blocked,
		Detail:    detail,
	}
	entry.Signature = a.sign(entry)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.recent = append(a.recent, entry)
	if len(a.recent) > a.keep {
		a.recent = a.recent[len(a.recent)-a.keep:]
	}

	a.appendLineLocked(entry)
	return entry
}

// Recent returns a copy of the bounded in-memory entries, newest last.
func (a *AuditLog) Recent() []LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]LogEntry, len(a.recent))
	copy(out, a.recent)
	return out
}

// Path returns the JSONL file path.
func (a *AuditLog) Path() string {
	return a.path
}

// appendLineLocked writes the entry as one JSON line. Must hold a.mu.
func (a *AuditLog) appendLineLocked(entry LogEntry) {
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f.Write(append(data, '\n'))
}

// =============================================================================
// INTEGRITY
// =============================================================================

// sign computes the HMAC-SHA256 signature over the entry's stable fields.
func (a *AuditLog) sign(entry LogEntry) string {
	mac := hmac.New(sha256.New, a.sigKey)
	fmt.Fprintf(mac, "%s|%s|%s|%t", entry.ID, entry.Timestamp.Format(time.RFC3339Nano), entry.Snippet, entry.Blocked)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyResult summarizes an audit log integrity check.
type VerifyResult struct {
	Lines    int `json:"lines"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Unsigned int `json:"unsigned"`
}

// Verify re-computes signatures over every persisted line and reports
// mismatches. Malformed lines count as invalid.
func (a *AuditLog) Verify() (VerifyResult, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return VerifyResult{}, nil
		}
		return VerifyResult{}, err
	}
	defer f.Close()

	var res VerifyResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res.Lines++

		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			res.Invalid++
			continue
		}
		if entry.Signature == "" {
			res.Unsigned++
			continue
		}
		if hmac.Equal([]byte(entry.Signature), []byte(a.sign(entry))) {
			res.Valid++
		} else {
			res.Invalid++
		}
	}
	return res, scanner.Err()
}

// =============================================================================
// KEY MANAGEMENT
// =============================================================================

// loadSigningKey loads key material from LLMGATE_AUDIT_KEY or a key file in
// dir (generated on first use), then derives the signing key with pbkdf2.
func loadSigningKey(dir string) ([]byte, error) {
	material := []byte(os.Getenv("LLMGATE_AUDIT_KEY"))
	saltPath := filepath.Join(dir, "audit.salt")

	if len(material) == 0 {
		keyPath := filepath.Join(dir, "audit.key")
		data, err := os.ReadFile(keyPath)
		if os.IsNotExist(err) {
			data = make([]byte, 32)
			if _, err := rand.Read(data); err != nil {
				return nil, err
			}
			if err := util.AtomicWriteFile(keyPath, data, 0600); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		material = data
	}

	salt, err := os.ReadFile(saltPath)
	if os.IsNotExist(err) {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		if err := util.AtomicWriteFile(saltPath, salt, 0600); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return pbkdf2.Key(material, salt, hmacIterations, 32, sha256.New), nil
}
