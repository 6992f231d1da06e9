// Package store is the SQLite adapter holding every project's plans and
// their node trees. It exposes the indexed point lookups, recursive walks and
// immediate-mode write transactions the plan engine is built on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("store: uniqueness conflict")

// querier is the subset of *sql.DB and *sql.Conn the queries need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the read-only query surface shared by Store and Tx.
type Queries struct {
	q querier
}

// Store is a SQLite-backed plan store in WAL mode. Reads go straight to the
// pool; writes go through Begin.
type Store struct {
	Queries
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at dbPath, enables WAL mode, foreign
// keys and a busy timeout, and creates the schema if it does not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open database %s: %w", dbPath, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{Queries: Queries{q: db}, db: db, path: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Tx is an immediate-mode write transaction pinned to one connection.
type Tx struct {
	Queries
	conn *sql.Conn
	done bool
}

// Begin opens a write transaction with BEGIN IMMEDIATE so the write intent
// is taken when the transaction starts, not at its first write statement.
// database/sql cannot express transaction modes, hence the dedicated
// connection and raw statements.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: begin immediate transaction: %w", err)
	}
	return &Tx{Queries: Queries{q: conn}, conn: conn}, nil
}

// Commit commits the transaction and returns the connection to the pool.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("store: transaction already finished")
	}
	t.done = true
	defer t.conn.Close()
	if _, err := t.conn.ExecContext(context.Background(), "COMMIT"); err != nil {
		// A failed COMMIT leaves the transaction open; roll it back so the
		// connection goes back to the pool clean.
		_, _ = t.conn.ExecContext(context.Background(), "ROLLBACK")
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Calling it after Commit is a no-op, so it
// is safe to defer.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.conn.Close()
	// Background context: cleanup must run even if the caller's ctx is done.
	if _, err := t.conn.ExecContext(context.Background(), "ROLLBACK"); err != nil {
		return fmt.Errorf("store: rollback: %w", err)
	}
	return nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullableID maps the zero parent ID to SQL NULL.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
