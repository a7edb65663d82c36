// Package trading simulates trades against a virtual cash balance priced at live quotes.
package trading

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts buy/sell in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("%w: side must be buy or sell", domain.ErrInvalidInput)
}

// Trade sources
const (
	SourceManual  = "manual"
	SourceCommand = "command"
)

var (
	// ErrInsufficientFunds is returned when a buy costs more than the available cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHoldings is returned when a sell exceeds the shares held.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Trade is one executed paper trade. Trades are never modified.
type Trade struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Total      float64   `json:"total"`
	Source     string    `json:"source"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Validate checks the fields the database also constrains.
func (t Trade) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("%w: invalid side %q", domain.ErrInvalidInput, t.Side)
	}
	if !(t.Quantity > 0) || math.IsInf(t.Quantity, 0) {
		return fmt.Errorf("%w: quantity must be greater than 0", domain.ErrInvalidInput)
	}
	if !(t.Price > 0) || math.IsInf(t.Price, 0) {
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidInput)
	}
	return nil
}

// TradeRequest asks for a trade at the current market price.
type TradeRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
}

// TradeResult is an executed trade and the cash left afterwards.
type TradeResult struct {
	Trade   Trade   `json:"trade"`
	Cash    float64 `json:"cash"`
	Message string  `json:"message"`
}

// Holding is a position derived from trade history using average cost.
type Holding struct {
	Symbol           string   `json:"symbol"`
	Quantity         float64  `json:"quantity"`
	AverageCost      float64  `json:"average_cost"`
	CostBasis        float64  `json:"cost_basis"`
	CurrentPrice     *float64 `json:"current_price,omitempty"`
	MarketValue      float64  `json:"market_value"`
	UnrealizedPL     float64  `json:"unrealized_pl"`
	PriceUnavailable bool     `json:"price_unavailable"`
}

// Portfolio is the user's cash plus holdings.
type Portfolio struct {
	Cash          float64   `json:"cash"`
	StartingCash  float64   `json:"starting_cash"`
	Holdings      []Holding `json:"holdings"`
	HoldingsValue float64   `json:"holdings_value"`
	TotalValue    float64   `json:"total_value"`
	ReturnPercent float64   `json:"return_percent"`
}
