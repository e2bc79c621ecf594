// Package sqlite persists session snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/techninja/techninja/pkg/domain"

	_ "modernc.org/sqlite"
)

// Store implements ports.SnapshotStore on a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing database path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Single-process local DB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  session_key TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  saved_at_unix_ms INTEGER NOT NULL,
  payload TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

// Close releases the database handle. It is safe on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the snapshot under key.
func (s *Store) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("missing session key")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots(session_key, version, saved_at_unix_ms, payload)
VALUES(?, ?, ?, ?)
ON CONFLICT(session_key) DO UPDATE SET
  version = excluded.version,
  saved_at_unix_ms = excluded.saved_at_unix_ms,
  payload = excluded.payload
`, key, snap.Version, snap.Timestamp, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot under key or domain.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE session_key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot under key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns stored keys, most recently saved first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_key
FROM snapshots
ORDER BY saved_at_unix_ms DESC, session_key ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
