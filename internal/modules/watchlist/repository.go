package watchlist

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

// Repository handles watchlist persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "watchlist").Logger(),
	}
}

// Add inserts a symbol. Adding a symbol twice updates its name and keeps one row.
func (r *Repository) Add(userID, symbol, name string) (*Entry, error) {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		INSERT INTO watchlist (user_id, symbol, name, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE watchlist.name END
	`, userID, symbol, name, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}

	var e Entry
	var addedAt int64
	err = r.db.QueryRow(
		"SELECT id, user_id, symbol, name, added_at FROM watchlist WHERE user_id = ? AND symbol = ?",
		userID, symbol,
	).Scan(&e.ID, &e.UserID, &e.Symbol, &e.Name, &addedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist entry: %w", err)
	}
	e.AddedAt = time.Unix(addedAt, 0).UTC()
	return &e, nil
}

// Remove deletes a symbol from the user's watchlist
func (r *Repository) Remove(userID, symbol string) error {
	result, err := r.db.Exec("DELETE FROM watchlist WHERE user_id = ? AND symbol = ?", userID, strings.ToUpper(symbol))
	if err != nil {
		return fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("watchlist symbol %s: %w", symbol, domain.ErrNotFound)
	}
	return nil
}

// List returns the user's watchlist in the order symbols were added
func (r *Repository) List(userID string) ([]Entry, error) {
	rows, err := r.db.Query("SELECT id, user_id, symbol, name, added_at FROM watchlist WHERE user_id = ? ORDER BY added_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var addedAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.Name, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		e.AddedAt = time.Unix(addedAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}
	return entries, nil
}
