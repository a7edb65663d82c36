package trading

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TradeSafetyService validates paper trades before they are recorded
type TradeSafetyService struct {
	log zerolog.Logger
}

// NewTradeSafetyService creates a new trade safety service
func NewTradeSafetyService(log zerolog.Logger) *TradeSafetyService {
	return &TradeSafetyService{
		log: log.With().Str("service", "trade_safety").Logger(),
	}
}

// ValidateTrade runs all checks and returns the first failure
func (s *TradeSafetyService) ValidateTrade(trade Trade, cash float64, holdings []Holding) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	if err := s.checkCash(trade, cash); err != nil {
		return err
	}

	if err := s.validateSellPosition(trade, holdings); err != nil {
		return err
	}

	s.log.Debug().Str("symbol", trade.Symbol).Str("side", string(trade.Side)).Msg("Trade validation passed")
	return nil
}

// checkCash rejects buys costing more than the available cash
func (s *TradeSafetyService) checkCash(trade Trade, cash float64) error {
	if trade.Side != SideBuy {
		return nil
	}
	cost := decimal.NewFromFloat(trade.Quantity).Mul(decimal.NewFromFloat(trade.Price)).Round(2)
	if cost.GreaterThan(decimal.NewFromFloat(cash)) {
		return fmt.Errorf("%w: buying %g %s costs $%s but only $%.2f is available",
			ErrInsufficientFunds, trade.Quantity, trade.Symbol, cost.StringFixed(2), cash)
	}
	return nil
}

// validateSellPosition rejects sells of more shares than are held
func (s *TradeSafetyService) validateSellPosition(trade Trade, holdings []Holding) error {
	if trade.Side != SideSell {
		return nil
	}

	held := holdingQuantity(holdings, trade.Symbol)
	if held <= 0 {
		return fmt.Errorf("%w: no position in %s", ErrInsufficientHoldings, trade.Symbol)
	}
	if decimal.NewFromFloat(trade.Quantity).GreaterThan(decimal.NewFromFloat(held)) {
		return fmt.Errorf("%w: cannot sell %g %s, only %g held", ErrInsufficientHoldings, trade.Quantity, trade.Symbol, held)
	}
	return nil
}
