package creditscore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

const recordColumns = `id, user_id, payment_history, credit_utilization, credit_age, account_diversity,
	recent_inquiries, total_balance, annual_income, score, category, recommendations,
	recommendation_source, created_at`

// Repository stores credit-score history. Rows are append-only.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new credit score repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "credit_scores").Logger(),
	}
}

// Create inserts a record.
func (r *Repository) Create(rec Record) error {
	recsJSON, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO credit_scores (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.UserID,
		string(rec.Profile.PaymentHistory),
		rec.Profile.CreditUtilizationPercent,
		rec.Profile.CreditAgeYears,
		string(rec.Profile.AccountTypeDiversity),
		rec.Profile.RecentInquiries,
		rec.Profile.TotalBalance,
		rec.Profile.AnnualIncome,
		rec.Score,
		string(rec.Category),
		string(recsJSON),
		string(rec.Source),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert credit score: %w", err)
	}
	return nil
}

// ListByUser returns the user's history, newest first. limit <= 0 means no limit.
func (r *Repository) ListByUser(userID string, limit int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM credit_scores WHERE user_id = ? ORDER BY created_at DESC, rowid DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit scores: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit scores: %w", err)
	}
	return records, nil
}

// Latest returns the newest record or domain.ErrNotFound.
func (r *Repository) Latest(userID string) (*Record, error) {
	records, err := r.ListByUser(userID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("credit score for user %s: %w", userID, domain.ErrNotFound)
	}
	return &records[0], nil
}

func (r *Repository) scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var payment, diversity, category, recsJSON, source string
	var createdAt int64

	err := rows.Scan(
		&rec.ID,
		&rec.UserID,
		&payment,
		&rec.Profile.CreditUtilizationPercent,
		&rec.Profile.CreditAgeYears,
		&diversity,
		&rec.Profile.RecentInquiries,
		&rec.Profile.TotalBalance,
		&rec.Profile.AnnualIncome,
		&rec.Score,
		&category,
		&recsJSON,
		&source,
		&createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan credit score: %w", err)
	}

	rec.Profile.PaymentHistory = PaymentHistory(payment)
	rec.Profile.AccountTypeDiversity = AccountDiversity(diversity)
	rec.Category = Category(category)
	rec.Source = RecommendationSource(source)
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	if err := json.Unmarshal([]byte(recsJSON), &rec.Recommendations); err != nil {
		r.log.Warn().Err(err).Str("id", rec.ID).Msg("Failed to unmarshal recommendations")
		rec.Recommendations = []Recommendation{}
	}
	return rec, nil
}
