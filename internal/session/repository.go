// Package session persists wizard sessions in SQLite, one row per chat.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository provides access to session persistence operations.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewRepository creates a new Repository. Saved sessions expire ttl after
// their last write.
func NewRepository(db *sql.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl, now: time.Now}
}

// Load returns the stored session for key, or nil if there is none or it
// has expired.
func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE session_key = ? AND expires_at > ?`,
		key, r.now().UnixMilli(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", key, err)
	}
	return []byte(data), nil
}

// Save upserts the session and pushes its expiry forward.
func (r *Repository) Save(ctx context.Context, key string, data []byte) error {
	now := r.now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_key, data, expires_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		key, string(data), now.Add(r.ttl).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

// Delete removes a session.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}

// CleanupExpired removes all expired sessions and reports how many went.
func (r *Repository) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
