// Package store provides the SQLite-backed document cache. The engine
// never depends on it directly: it implements fetch.DocumentCache and
// wraps any fetcher through fetch.NewCached, keeping cache policy on
// the caller's side of the fetch boundary.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Enable WAL mode (Write-Ahead Logging)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		location TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Index for age-based pruning
	CREATE INDEX IF NOT EXISTS idx_documents_fetched_at ON documents(fetched_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	return nil
}

// Get returns the cached document body for a location.
func (s *Store) Get(ctx context.Context, location string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE location = ?", location).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document %q: %w", location, err)
	}
	return body, true, nil
}

// Put stores a document body under its location, replacing any previous
// body.
func (s *Store) Put(ctx context.Context, location string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (location, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		location, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store document %q: %w", location, err)
	}
	return nil
}

// Delete removes a cached document.
func (s *Store) Delete(ctx context.Context, location string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE location = ?", location); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", location, err)
	}
	return nil
}

// PruneDocuments deletes documents fetched before the retention window.
// Returns the number of rows removed.
func (s *Store) PruneDocuments(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents: %w", err)
	}
	return res.RowsAffected()
}

// CountDocuments returns the number of cached documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
