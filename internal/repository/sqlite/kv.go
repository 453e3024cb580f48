package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/maxsports/internal/storage"
)

// Compile-time check that DB is a storage scope.
var _ storage.Scope = (*DB)(nil)

// Get returns the value stored under key, or storage.ErrNoValue.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoValue
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. The whole value is replaced: there are no
// partial updates and no version check, so the last writer wins.
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s: %w", key, err)
	}
	return nil
}

// Clear removes key. Removing a missing key is not an error.
func (db *DB) Clear(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: clearing %s: %w", key, err)
	}
	return nil
}
