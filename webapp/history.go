package webapp

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryEntry is one audited operation.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
}

// HistoryStore persists the audit trail in a local sqlite database. Safe
// for concurrent use.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistoryStore opens (and if needed creates) the database at path.
// Pass ":memory:" for an ephemeral store.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS history (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			action     TEXT NOT NULL,
			subject    TEXT NOT NULL,
			status     TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS history_created_at ON history (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing history database: %w", err)
		}
	}
	return &HistoryStore{db: db}, nil
}

// Record appends one entry. CreatedAt is stamped here; the caller's value
// is ignored.
func (s *HistoryStore) Record(ctx context.Context, e HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (created_at, action, subject, status, detail) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), e.Action, e.Subject, e.Status, e.Detail)
	if err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, action, subject, status, detail
		 FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e  HistoryEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Action, &e.Subject, &e.Status, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing history timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *HistoryStore) Close() error { return s.db.Close() }
