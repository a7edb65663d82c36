package trading

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/database"
)

// tradesColumns is the list of columns for the trades table.
// Column order must match scanTrade().
const tradesColumns = `id, user_id, symbol, side, quantity, price, total, source, executed_at`

// TradeRepository handles trade and cash persistence
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// Record inserts a trade and sets the user's cash in one transaction
func (r *TradeRepository) Record(trade Trade, cashAfter float64) (*Trade, error) {
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO trades (user_id, symbol, side, quantity, price, total, source, executed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			trade.UserID,
			trade.Symbol,
			string(trade.Side),
			trade.Quantity,
			trade.Price,
			trade.Total,
			trade.Source,
			trade.ExecutedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}
		if trade.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get trade id: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO portfolio_cash (user_id, cash, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				cash = excluded.cash,
				updated_at = excluded.updated_at
		`, trade.UserID, cashAfter, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to update cash: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("user_id", trade.UserID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Float64("quantity", trade.Quantity).
		Msg("Trade created")

	return &trade, nil
}

// GetCash returns the user's cash. found is false before the first trade.
func (r *TradeRepository) GetCash(userID string) (cash float64, found bool, err error) {
	err = r.db.QueryRow("SELECT cash FROM portfolio_cash WHERE user_id = ?", userID).Scan(&cash)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cash: %w", err)
	}
	return cash, true, nil
}

// ListByUser returns trades newest first. limit <= 0 means no limit.
func (r *TradeRepository) ListByUser(userID string, limit int) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE user_id = ? ORDER BY executed_at DESC, id DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ListChronological returns every trade of the user oldest first, for replaying positions
func (r *TradeRepository) ListChronological(userID string) ([]Trade, error) {
	return r.query("SELECT "+tradesColumns+" FROM trades WHERE user_id = ? ORDER BY executed_at, id", userID)
}

func (r *TradeRepository) query(query string, args ...interface{}) ([]Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (Trade, error) {
	var t Trade
	var side string
	var executedAt int64
	err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &side, &t.Quantity, &t.Price, &t.Total, &t.Source, &executedAt)
	if err != nil {
		return t, fmt.Errorf("failed to scan trade: %w", err)
	}
	t.Side = Side(side)
	t.ExecutedAt = time.Unix(executedAt, 0).UTC()
	return t, nil
}
