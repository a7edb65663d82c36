package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
)

// StartingCashSource provides the initial balance for users without trades.
type StartingCashSource interface {
	StartingCash(userID string) float64
}

// TradeRecorder counts executed trades (metrics).
type TradeRecorder interface {
	RecordTrade(side string)
}

// Service executes paper trades and values portfolios
type Service struct {
	repo     *TradeRepository
	safety   *TradeSafetyService
	market   domain.MarketDataProvider
	cash     StartingCashSource
	emitter  domain.EventEmitter
	recorder TradeRecorder
	log      zerolog.Logger

	// serializes the read-validate-write of a trade
	mu  sync.Mutex
	now func() time.Time
}

// NewService creates a trading service. emitter and recorder may be nil.
func NewService(
	repo *TradeRepository,
	safety *TradeSafetyService,
	market domain.MarketDataProvider,
	cash StartingCashSource,
	emitter domain.EventEmitter,
	recorder TradeRecorder,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		safety:   safety,
		market:   market,
		cash:     cash,
		emitter:  emitter,
		recorder: recorder,
		log:      log.With().Str("service", "trading").Logger(),
		now:      time.Now,
	}
}

// ExecuteTrade prices the request at the current quote and records it.
func (s *Service) ExecuteTrade(ctx context.Context, userID string, req TradeRequest, source string) (*TradeResult, error) {
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if !(req.Quantity > 0) {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", domain.ErrInvalidInput)
	}
	return s.execute(ctx, userID, &Command{Side: side, Symbol: symbol, Quantity: req.Quantity}, source)
}

// ExecuteCommand parses a natural-language command and executes it.
func (s *Service) ExecuteCommand(ctx context.Context, userID, text string) (*TradeResult, error) {
	cmd, err := ParseCommand(text)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, userID, cmd, SourceCommand)
}

func (s *Service) execute(ctx context.Context, userID string, cmd *Command, source string) (*TradeResult, error) {
	quote, err := s.market.GetQuote(ctx, cmd.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", cmd.Symbol, err)
	}
	if !(quote.Price > 0) {
		return nil, fmt.Errorf("failed to get quote for %s: %w", cmd.Symbol, domain.ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cash, err := s.currentCash(userID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListChronological(userID)
	if err != nil {
		return nil, err
	}
	holdings := DeriveHoldings(history)

	qty := cmd.Quantity
	if cmd.All {
		qty = holdingQuantity(holdings, cmd.Symbol)
		if qty <= 0 {
			return nil, fmt.Errorf("%w: no position in %s", ErrInsufficientHoldings, cmd.Symbol)
		}
	}

	total := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(quote.Price)).Round(2)
	trade := Trade{
		UserID:     userID,
		Symbol:     cmd.Symbol,
		Side:       cmd.Side,
		Quantity:   qty,
		Price:      quote.Price,
		Total:      total.InexactFloat64(),
		Source:     source,
		ExecutedAt: s.now().UTC(),
	}
	if err := s.safety.ValidateTrade(trade, cash, holdings); err != nil {
		return nil, err
	}

	after := decimal.NewFromFloat(cash)
	if cmd.Side == SideBuy {
		after = after.Sub(total)
	} else {
		after = after.Add(total)
	}
	cashAfter := after.Round(2).InexactFloat64()

	saved, err := s.repo.Record(trade, cashAfter)
	if err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordTrade(string(saved.Side))
	}
	if s.emitter != nil {
		s.emitter.Emit(userID, &events.TradeExecutedData{
			TradeID:  saved.ID,
			Symbol:   saved.Symbol,
			Side:     string(saved.Side),
			Quantity: saved.Quantity,
			Price:    saved.Price,
			Cash:     cashAfter,
			Source:   saved.Source,
		})
	}

	verb := "Bought"
	if saved.Side == SideSell {
		verb = "Sold"
	}
	return &TradeResult{
		Trade:   *saved,
		Cash:    cashAfter,
		Message: fmt.Sprintf("%s %g %s at $%.2f for $%s", verb, saved.Quantity, saved.Symbol, saved.Price, total.StringFixed(2)),
	}, nil
}

// currentCash returns stored cash, or the starting balance before the first trade.
func (s *Service) currentCash(userID string) (float64, error) {
	cash, found, err := s.repo.GetCash(userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return s.cash.StartingCash(userID), nil
	}
	return cash, nil
}

// History returns trades newest first.
func (s *Service) History(userID string, limit int) ([]Trade, error) {
	return s.repo.ListByUser(userID, limit)
}

// Portfolio values holdings at current quotes. A holding whose quote fails is
// valued at cost and flagged price_unavailable.
func (s *Service) Portfolio(ctx context.Context, userID string) (*Portfolio, error) {
	cash, err := s.currentCash(userID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListChronological(userID)
	if err != nil {
		return nil, err
	}

	holdings := DeriveHoldings(history)
	holdingsValue := decimal.Zero
	for i := range holdings {
		h := &holdings[i]
		value := decimal.NewFromFloat(h.CostBasis)

		q, err := s.market.GetQuote(ctx, h.Symbol)
		if err == nil && q.Price > 0 {
			price := q.Price
			h.CurrentPrice = &price
			value = decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(price)).Round(2)
		} else {
			if err == nil {
				err = domain.ErrUnavailable
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable for holding")
			h.PriceUnavailable = true
		}

		h.MarketValue = value.InexactFloat64()
		h.UnrealizedPL = value.Sub(decimal.NewFromFloat(h.CostBasis)).Round(2).InexactFloat64()
		holdingsValue = holdingsValue.Add(value)
	}

	starting := s.cash.StartingCash(userID)
	total := decimal.NewFromFloat(cash).Add(holdingsValue)
	p := &Portfolio{
		Cash:          cash,
		StartingCash:  starting,
		Holdings:      holdings,
		HoldingsValue: holdingsValue.Round(2).InexactFloat64(),
		TotalValue:    total.Round(2).InexactFloat64(),
	}
	if starting > 0 {
		start := decimal.NewFromFloat(starting)
		p.ReturnPercent = total.Sub(start).Div(start).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return p, nil
}
