package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is the key-value persistence contract consumed by the engine and
// the habitat provider.
type Store interface {
	// Save stores value under key, replacing any existing value.
	Save(ctx context.Context, key string, value []byte) error

	// Load returns the value stored under key.
	// Returns an error wrapping ErrNotFound when the key is absent.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value stored under key.
	// Returns an error wrapping ErrNotFound when the key is absent.
	Delete(ctx context.Context, key string) error
}

// SQLiteStore implements Store over the kv_state table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an open database. The kv_state table
// is created by the embedded migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save stores value under key, replacing any existing value.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv_state WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return value, nil
}

// Delete removes the value stored under key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM kv_state WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return nil
}

// Keys returns all stored keys, sorted. Useful for diagnostics.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv_state ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}
