package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetLastSync returns the last successful sync time for a scope, or nil if
// the scope has never synced
func (db *DB) GetLastSync(ctx context.Context, scope string) (*time.Time, error) {
	var t time.Time
	err := db.conn.QueryRowContext(ctx, `SELECT last_sync FROM sync_state WHERE scope = $1`, scope).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync: %w", err)
	}
	return &t, nil
}

// SetLastSync records a successful sync time for a scope
func (db *DB) SetLastSync(ctx context.Context, scope string, t time.Time) error {
	query := `
		INSERT INTO sync_state (scope, last_sync, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (scope) DO UPDATE SET
			last_sync = EXCLUDED.last_sync,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, scope, t); err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}
	return nil
}
