package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS recovery_audit (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT UNIQUE NOT NULL,
	kind TEXT NOT NULL,
	label TEXT NOT NULL,
	category TEXT,
	payload_json TEXT,
	error TEXT,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recovery_audit_kind ON recovery_audit(kind);
CREATE INDEX IF NOT EXISTS idx_recovery_audit_category ON recovery_audit(category);
`

// SQLiteSink persists audit entries in a SQLite table
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the audit database at dsn
func OpenSQLite(dsn string) (*SQLiteSink, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	sink, err := NewSQLiteSink(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

// NewSQLiteSink creates the audit table on an existing connection
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// RecordStep inserts a recovery step
func (s *SQLiteSink) RecordStep(label string, payload any, category string) error {
	return s.insert(newStep(label, payload, category))
}

// RecordError inserts a raw error with its context
func (s *SQLiteSink) RecordError(label string, err error, context any) error {
	return s.insert(newError(label, err, context))
}

func (s *SQLiteSink) insert(e Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO recovery_audit (entry_id, kind, label, category, payload_json, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Kind,
		e.Label,
		nullString(e.Category),
		nullString(string(e.Payload)),
		nullString(e.Error),
		e.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Entries returns every entry in insertion order
func (s *SQLiteSink) Entries() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT seq, entry_id, kind, label, category, payload_json, error, recorded_at
		FROM recovery_audit
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                         Entry
			category, payload, errMsg sql.NullString
			recordedAt                string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Kind, &e.Label, &category, &payload, &errMsg, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Category = category.String
		e.Error = errMsg.String
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
