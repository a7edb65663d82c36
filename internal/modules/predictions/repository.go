package predictions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const predictionColumns = `id, user_id, symbol, current_price, predicted_price, trend, confidence,
	sma, rsi, horizon_days, created_at`

// Repository stores predictions. One row per request, never updated.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new predictions repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "predictions").Logger(),
	}
}

// Create inserts a prediction.
func (r *Repository) Create(p Prediction) error {
	_, err := r.db.Exec(`
		INSERT INTO predictions (`+predictionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.UserID,
		p.Symbol,
		p.CurrentPrice,
		p.PredictedPrice,
		p.Trend,
		p.Confidence,
		nullable(p.SMA),
		nullable(p.RSI),
		p.HorizonDays,
		p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// ListByUser returns predictions newest first, optionally for one symbol.
// limit <= 0 means no limit.
func (r *Repository) ListByUser(userID, symbol string, limit int) ([]Prediction, error) {
	query := "SELECT " + predictionColumns + " FROM predictions WHERE user_id = ?"
	args := []interface{}{userID}
	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		var sma, rsi sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.CurrentPrice, &p.PredictedPrice,
			&p.Trend, &p.Confidence, &sma, &rsi, &p.HorizonDays, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		if sma.Valid {
			p.SMA = &sma.Float64
		}
		if rsi.Valid {
			p.RSI = &rsi.Float64
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}
	return out, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
