// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// archive.go - sqlite persistence for completed ledger sessions.
//
// The in-memory ledger is authoritative for the running process; the archive
// exists so operators can review spend across restarts.
package budget

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ARCHIVE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	started_at    TIMESTAMP NOT NULL,
	ended_at      TIMESTAMP NOT NULL,
	requests      INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_cost    REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS usage_entries (
	session_id    TEXT NOT NULL REFERENCES sessions(id),
	recorded_at   TIMESTAMP NOT NULL,
	category      TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost          REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_session ON usage_entries(session_id);
`

// Archive persists completed ledger sessions to sqlite.
type Archive struct {
	db *sql.DB
}

// SessionSummary is an archived session row.
type SessionSummary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	Requests     int       `json:"requests"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalCost    float64   `json:"total_cost"`
}

// OpenArchive opens (creating if needed) the spend archive at path.
// An empty path defaults to ~/.llmgate/spend.db.
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".llmgate", "spend.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save archives the ledger's current state as a completed session.
func (a *Archive) Save(l *Ledger) error {
	if l == nil {
		return errors.New("ledger cannot be nil")
	}

	entries := l.Entries()
	m := l.Metrics()

	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO sessions
		 (id, started_at, ended_at, requests, input_tokens, output_tokens, total_cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.SessionID(), l.StartTime(), time.Now(),
		m.TotalRequests, m.TotalInputTokens, m.TotalOutputTokens, m.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM usage_entries WHERE session_id = ?`, l.SessionID()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO usage_entries
		 (session_id, recorded_at, category, input_tokens, output_tokens, cost)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(l.SessionID(), e.Timestamp, e.Category, e.InputTokens, e.OutputTokens, e.Cost); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}
	}

	return tx.Commit()
}

// Sessions returns archived sessions started within [from, to], newest first.
func (a *Archive) Sessions(from, to time.Time) ([]SessionSummary, error) {
	rows, err := a.db.Query(
		`SELECT id, started_at, ended_at, requests, input_tokens, output_tokens, total_cost
		 FROM sessions
		 WHERE started_at >= ? AND started_at <= ?
		 ORDER BY started_at DESC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.Requests,
			&s.InputTokens, &s.OutputTokens, &s.TotalCost); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TotalSpend sums archived session costs started within [from, to].
func (a *Archive) TotalSpend(from, to time.Time) (float64, error) {
	var total sql.NullFloat64
	err := a.db.QueryRow(
		`SELECT SUM(total_cost) FROM sessions WHERE started_at >= ? AND started_at <= ?`,
		from, to,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
