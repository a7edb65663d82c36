package watchlist

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

// maxConcurrentQuotes bounds parallel quote requests per call.
const maxConcurrentQuotes = 4

// Service manages watchlists and prices them
type Service struct {
	repo   *Repository
	market domain.MarketDataProvider
	log    zerolog.Logger
}

// NewService creates a watchlist service
func NewService(repo *Repository, market domain.MarketDataProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		market: market,
		log:    log.With().Str("service", "watchlist").Logger(),
	}
}

// Add normalizes and stores a symbol
func (s *Service) Add(userID, symbol, name string) (*Entry, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.repo.Add(userID, sym, strings.TrimSpace(name))
}

// Remove deletes a symbol
func (s *Service) Remove(userID, symbol string) error {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return s.repo.Remove(userID, sym)
}

// List returns the user's symbols
func (s *Service) List(userID string) ([]Entry, error) {
	return s.repo.List(userID)
}

// Quotes prices every watched symbol. A failed quote marks only its own entry
// unavailable; the call itself fails only when the watchlist cannot be read.
func (s *Service) Quotes(ctx context.Context, userID string) ([]QuotedEntry, error) {
	entries, err := s.repo.List(userID)
	if err != nil {
		return nil, err
	}

	out := make([]QuotedEntry, len(entries))
	sem := make(chan struct{}, maxConcurrentQuotes)
	var wg sync.WaitGroup
	for i, e := range entries {
		out[i].Entry = e
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q, err := s.market.GetQuote(ctx, symbol)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable")
				out[i].Unavailable = true
				out[i].Error = quoteErrorMessage(err)
				return
			}
			out[i].Quote = q
		}(i, e.Symbol)
	}
	wg.Wait()

	return out, nil
}

func quoteErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "Market data rate limit reached, try again later"
	case errors.Is(err, domain.ErrNotFound):
		return "No quote available for this symbol"
	default:
		return "Data unavailable, try again"
	}
}
