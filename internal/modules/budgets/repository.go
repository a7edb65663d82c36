package budgets

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

const budgetColumns = `id, user_id, category, amount, start_date, end_date, created_at, updated_at`

// Repository handles budget persistence. Every query is scoped by user id.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new budget repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "budgets").Logger(),
	}
}

// Create inserts a budget and returns it with its id
func (r *Repository) Create(userID string, in Input) (*Budget, error) {
	now := time.Now().Unix()
	result, err := r.db.Exec(`
		INSERT INTO budgets (user_id, category, amount, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, in.Category, in.Amount, in.StartDate, in.EndDate, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert budget: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get budget id: %w", err)
	}
	return r.GetByID(userID, id)
}

// Update replaces the writable fields of a budget owned by userID
func (r *Repository) Update(userID string, id int64, in Input) error {
	result, err := r.db.Exec(`
		UPDATE budgets
		SET category = ?, amount = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, in.Category, in.Amount, in.StartDate, in.EndDate, time.Now().Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return requireAffected(result, id)
}

// Delete removes a budget owned by userID
func (r *Repository) Delete(userID string, id int64) error {
	result, err := r.db.Exec("DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return requireAffected(result, id)
}

// GetByID returns one budget owned by userID
func (r *Repository) GetByID(userID string, id int64) (*Budget, error) {
	row := r.db.QueryRow("SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &b, nil
}

// List returns all budgets of a user, most recent period first
func (r *Repository) List(userID string) ([]Budget, error) {
	rows, err := r.db.Query("SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY start_date DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBudget(s scanner) (Budget, error) {
	var b Budget
	var createdAt, updatedAt int64
	if err := s.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount, &b.StartDate, &b.EndDate, &createdAt, &updatedAt); err != nil {
		return b, err
	}
	b.CreatedAt = time.Unix(createdAt, 0).UTC()
	b.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return b, nil
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
