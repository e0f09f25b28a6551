// Package history keeps a local SQLite log of answered rug checks so that
// operators can review what was asked and answered without re-running the
// pipeline. History is strictly a side channel: failing to record an entry
// never fails a check.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Disabled is the path value that turns history off.
const Disabled = "disabled"

// Entry is one answered check.
type Entry struct {
	// ID is assigned by the store on Append.
	ID int64
	// Question is the question as asked.
	Question string
	// TokenAddress is the address filter, empty when none was given.
	TokenAddress string
	// Mode is the request shape that produced the answer.
	Mode string
	// Answer is the model's answer text.
	Answer string
	// Sources is the number of chunks the answer was grounded on.
	Sources int
	// Profiles is the number of token profiles used as evidence.
	Profiles int
	// Duration is the end-to-end check latency.
	Duration time.Duration
	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time
}

// Store persists and retrieves check history. Implementations must be safe
// for concurrent use.
type Store interface {
	// Append records e.
	Append(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first. A non-empty address
	// restricts the result to checks filtered on that token.
	Recent(ctx context.Context, address string, n int) ([]Entry, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the history database.
// It resolves to ~/.rugcheck/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("history: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".rugcheck")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("history: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	if path == "" || path == Disabled {
		return nil, fmt.Errorf("history: no database path")
	}
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS checks (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    question      TEXT    NOT NULL,
    token_address TEXT    NOT NULL DEFAULT '',
    mode          TEXT    NOT NULL,
    answer        TEXT    NOT NULL,
    sources       INTEGER NOT NULL,
    profiles      INTEGER NOT NULL,
    duration_ms   INTEGER NOT NULL,
    created_at    INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_checks_address
    ON checks (token_address, id);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Append records e. Addresses are stored lowercased so lookups are
// case-insensitive.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO checks (question, token_address, mode, answer, sources, profiles, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q,
		e.Question,
		strings.ToLower(e.TokenAddress),
		e.Mode,
		e.Answer,
		e.Sources,
		e.Profiles,
		e.Duration.Milliseconds(),
		created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, address string, n int) ([]Entry, error) {
	const q = `
SELECT id, question, token_address, mode, answer, sources, profiles, duration_ms, created_at
FROM   checks
WHERE  ? = '' OR token_address = ?
ORDER  BY id DESC
LIMIT  ?`

	address = strings.ToLower(strings.TrimSpace(address))
	rows, err := s.db.QueryContext(ctx, q, address, address, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms, ts int64
		if err := rows.Scan(&e.ID, &e.Question, &e.TokenAddress, &e.Mode, &e.Answer,
			&e.Sources, &e.Profiles, &ms, &ts); err != nil {
			return nil, fmt.Errorf("history: recent scan: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		e.CreatedAt = time.Unix(ts, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	return nil
}
