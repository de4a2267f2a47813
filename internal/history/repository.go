// Package history stores completed weeks for the library screen.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no entry matches the id for that owner.
var ErrNotFound = errors.New("history entry not found")

// Entry is one saved week.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Meals     []string  `json:"meals"`
	CreatedAt time.Time `json:"createdAt"`
	Favorite  bool      `json:"favorite"`
}

// Repository is a database-backed store of history entries, partitioned by
// owner (a chat id, or "local" for the terminal wizard).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts a new entry.
func (r *Repository) Append(ctx context.Context, owner string, e Entry) error {
	meals, err := json.Marshal(e.Meals)
	if err != nil {
		return fmt.Errorf("failed to marshal meals: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO history_entries (id, owner, title, meals, favorite, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, owner, e.Title, string(meals), e.Favorite, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns the owner's entries, newest first.
func (r *Repository) List(ctx context.Context, owner string) ([]Entry, error) {
	return r.query(ctx,
		`SELECT id, title, meals, favorite, created_at FROM history_entries WHERE owner = ? ORDER BY created_at DESC, id`,
		owner)
}

// ListFavorites returns only the entries marked as favorite, newest first.
func (r *Repository) ListFavorites(ctx context.Context, owner string) ([]Entry, error) {
	return r.query(ctx,
		`SELECT id, title, meals, favorite, created_at FROM history_entries WHERE owner = ? AND favorite = 1 ORDER BY created_at DESC, id`,
		owner)
}

// Search matches term case-insensitively against titles and meal lines.
// An empty term lists everything.
func (r *Repository) Search(ctx context.Context, owner, term string) ([]Entry, error) {
	entries, err := r.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries, nil
	}

	var matches []Entry
	for _, e := range entries {
		if entryMatches(e, term) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func entryMatches(e Entry, term string) bool {
	if strings.Contains(strings.ToLower(e.Title), term) {
		return true
	}
	for _, m := range e.Meals {
		if strings.Contains(strings.ToLower(m), term) {
			return true
		}
	}
	return false
}

// Get loads one entry.
func (r *Repository) Get(ctx context.Context, owner, id string) (Entry, error) {
	entries, err := r.query(ctx,
		`SELECT id, title, meals, favorite, created_at FROM history_entries WHERE owner = ? AND id = ?`,
		owner, id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// ToggleFavorite flips the favorite flag and returns the updated entry.
func (r *Repository) ToggleFavorite(ctx context.Context, owner, id string) (Entry, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE history_entries SET favorite = 1 - favorite WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to toggle favorite for %s: %w", id, err)
	}
	if err := requireRow(res); err != nil {
		return Entry{}, err
	}
	return r.Get(ctx, owner, id)
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM history_entries WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry %s: %w", id, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			meals     string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &meals, &e.Favorite, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(meals), &e.Meals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meals of %s: %w", e.ID, err)
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
