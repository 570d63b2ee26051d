// Copyright 2026 © The Emperor Authors
// SPDX-License-Identifier: Apache-2.0

package permissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// AuditAction identifies what the audit entry records.
type AuditAction string

const (
	AuditToolExecuted      AuditAction = "tool_executed"
	AuditToolDenied        AuditAction = "tool_denied"
	AuditApprovalRequested AuditAction = "approval_requested"
	AuditApprovalGranted   AuditAction = "approval_granted"
	AuditApprovalDenied    AuditAction = "approval_denied"
	AuditApprovalTimeout   AuditAction = "approval_timeout"
)

// AuditEntry is one audited permission decision.
type AuditEntry struct {
	Agent     string
	Tool      string
	Action    AuditAction
	Risk      RiskLevel
	Reason    string
	Input     map[string]any
	CreatedAt time.Time
}

// AuditFilter narrows List results.
type AuditFilter struct {
	Agent  string
	Tool   string
	Action AuditAction
	Limit  int
}

// AuditStats aggregates counts per action.
type AuditStats struct {
	Total    int
	ByAction map[AuditAction]int
}

// AuditStore persists permission decisions.
type AuditStore interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
	Stats(ctx context.Context) (AuditStats, error)
}

// SQLiteAuditStore persists audit entries in SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// OpenSQLiteAuditStore opens (or creates) the audit database at path.
func OpenSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteAuditStore(db)
}

// NewSQLiteAuditStore creates a SQLite-backed audit store and ensures schema.
func NewSQLiteAuditStore(db *sql.DB) (*SQLiteAuditStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureAuditSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteAuditStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}

// Record stores a single audit entry. Tool input is sanitized before
// persistence: long values are truncated and secret-looking keys redacted.
func (s *SQLiteAuditStore) Record(ctx context.Context, entry AuditEntry) error {
	input, err := encodeAuditInput(sanitizeInput(entry.Input))
	if err != nil {
		return err
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO permission_audit_entries (
			agent, tool, action, risk, reason, input_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Agent,
		entry.Tool,
		string(entry.Action),
		string(entry.Risk),
		entry.Reason,
		input,
		created.UTC(),
	)
	return err
}

// List returns audit entries matching the filter, oldest first.
func (s *SQLiteAuditStore) List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	query := `
		SELECT agent, tool, action, risk, reason, input_json, created_at
		FROM permission_audit_entries
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.Agent != "" {
		addFilter("agent = ?", filter.Agent)
	}
	if filter.Tool != "" {
		addFilter("tool = ?", filter.Tool)
	}
	if filter.Action != "" {
		addFilter("action = ?", string(filter.Action))
	}
	query += where + " ORDER BY created_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			entry     AuditEntry
			action    string
			risk      string
			inputJSON string
			created   sql.NullTime
		)
		if err := rows.Scan(
			&entry.Agent,
			&entry.Tool,
			&action,
			&risk,
			&entry.Reason,
			&inputJSON,
			&created,
		); err != nil {
			return nil, err
		}
		entry.Action = AuditAction(action)
		entry.Risk = RiskLevel(risk)
		if inputJSON != "" {
			if in, err := decodeAuditInput([]byte(inputJSON)); err == nil {
				entry.Input = in
			}
		}
		if created.Valid {
			entry.CreatedAt = created.Time
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats returns aggregate counts per action.
func (s *SQLiteAuditStore) Stats(ctx context.Context) (AuditStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM permission_audit_entries GROUP BY action
	`)
	if err != nil {
		return AuditStats{}, err
	}
	defer rows.Close()

	stats := AuditStats{ByAction: make(map[AuditAction]int)}
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return AuditStats{}, err
		}
		stats.ByAction[AuditAction(action)] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func ensureAuditSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS permission_audit_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT NOT NULL,
			tool TEXT NOT NULL,
			action TEXT NOT NULL,
			risk TEXT NOT NULL,
			reason TEXT,
			input_json TEXT,
			created_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_permission_audit_agent ON permission_audit_entries(agent);
		CREATE INDEX IF NOT EXISTS idx_permission_audit_tool ON permission_audit_entries(tool);
		CREATE INDEX IF NOT EXISTS idx_permission_audit_action ON permission_audit_entries(action);
	`)
	return err
}

const maxAuditValueLen = 256

var secretKeyFragments = []string{"password", "secret", "token", "api_key", "apikey", "credential"}

func sanitizeInput(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		if isSecretKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if s, ok := v.(string); ok && len(s) > maxAuditValueLen {
			out[k] = truncateUTF8(s, maxAuditValueLen) + "…[truncated]"
			continue
		}
		out[k] = v
	}
	return out
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range secretKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func encodeAuditInput(input map[string]any) (string, error) {
	if input == nil {
		return "", nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAuditInput(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NoopAuditStore discards entries. Useful for tests and relaxed setups.
type NoopAuditStore struct{}

func (NoopAuditStore) Record(context.Context, AuditEntry) error { return nil }
func (NoopAuditStore) List(context.Context, AuditFilter) ([]AuditEntry, error) {
	return nil, nil
}
func (NoopAuditStore) Stats(context.Context) (AuditStats, error) {
	return AuditStats{ByAction: map[AuditAction]int{}}, nil
}
