package predictions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	"github.com/smasshh/finmate/internal/modules/watchlist"
)

// Service fetches history, analyzes it and stores the result
type Service struct {
	repo    *Repository
	market  domain.MarketDataProvider
	emitter domain.EventEmitter
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a predictions service. emitter may be nil.
func NewService(repo *Repository, market domain.MarketDataProvider, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		market:  market,
		emitter: emitter,
		log:     log.With().Str("service", "predictions").Logger(),
		now:     time.Now,
	}
}

// Predict analyzes symbol and persists one prediction row.
func (s *Service) Predict(ctx context.Context, userID, symbol string, horizonDays int) (*Prediction, error) {
	sym, err := watchlist.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}

	bars, err := s.market.GetDailySeries(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily series for %s: %w", sym, err)
	}

	analysis, err := Analyze(bars, horizonDays)
	if err != nil {
		return nil, err
	}

	p := Prediction{
		ID:             uuid.NewString(),
		UserID:         userID,
		Symbol:         sym,
		CurrentPrice:   analysis.CurrentPrice,
		PredictedPrice: analysis.PredictedPrice,
		Trend:          analysis.Trend,
		Confidence:     analysis.Confidence,
		SMA:            analysis.SMA,
		RSI:            analysis.RSI,
		HorizonDays:    analysis.HorizonDays,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.Create(p); err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(userID, &events.PredictionCreatedData{
			PredictionID:   p.ID,
			Symbol:         p.Symbol,
			Trend:          p.Trend,
			PredictedPrice: p.PredictedPrice,
			Confidence:     p.Confidence,
		})
	}

	s.log.Info().
		Str("user_id", userID).
		Str("symbol", sym).
		Str("trend", p.Trend).
		Float64("confidence", p.Confidence).
		Msg("Prediction created")

	return &p, nil
}

// List returns stored predictions, newest first. symbol may be empty.
func (s *Service) List(userID, symbol string, limit int) ([]Prediction, error) {
	if symbol != "" {
		sym, err := watchlist.NormalizeSymbol(symbol)
		if err != nil {
			return nil, err
		}
		symbol = sym
	}
	return s.repo.ListByUser(userID, symbol, limit)
}
