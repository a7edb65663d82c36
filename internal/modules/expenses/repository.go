package expenses

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

const expenseColumns = `id, user_id, category, amount, description, date, created_at, updated_at`

// Repository handles expense persistence. Every query is scoped by user id.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "expenses").Logger(),
	}
}

// Create inserts an expense and returns it with its id
func (r *Repository) Create(userID string, in Input) (*Expense, error) {
	now := time.Now().UTC()
	result, err := r.db.Exec(`
		INSERT INTO expenses (user_id, category, amount, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, in.Category, in.Amount, in.Description, in.Date, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get expense id: %w", err)
	}

	return &Expense{
		ID:          id,
		UserID:      userID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   time.Unix(now.Unix(), 0).UTC(),
		UpdatedAt:   time.Unix(now.Unix(), 0).UTC(),
	}, nil
}

// Update replaces the writable fields of an expense owned by userID
func (r *Repository) Update(userID string, id int64, in Input) error {
	result, err := r.db.Exec(`
		UPDATE expenses
		SET category = ?, amount = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, in.Category, in.Amount, in.Description, in.Date, time.Now().Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return requireAffected(result, id)
}

// Delete removes an expense owned by userID
func (r *Repository) Delete(userID string, id int64) error {
	result, err := r.db.Exec("DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(result, id)
}

// GetByID returns one expense owned by userID
func (r *Repository) GetByID(userID string, id int64) (*Expense, error) {
	rows, err := r.db.Query("SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating expense: %w", err)
		}
		return nil, fmt.Errorf("expense %d: %w", id, domain.ErrNotFound)
	}
	e, err := scanExpense(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the user's expenses, newest date first
func (r *Repository) List(userID string, f Filter) ([]Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE user_id = ?"
	args := []interface{}{userID}
	if f.From != "" {
		query += " AND date >= ?"
		args = append(args, f.From)
	}
	if f.To != "" {
		query += " AND date <= ?"
		args = append(args, f.To)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(rows *sql.Rows) (Expense, error) {
	var e Expense
	var createdAt, updatedAt int64
	err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Description, &e.Date, &createdAt, &updatedAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan expense: %w", err)
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return e, nil
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
