package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/clientdata"
	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	"github.com/smasshh/finmate/internal/utils"
)

// Refreshes slower than this are logged as warnings.
const slowRefresh = 30 * time.Second

// Persisted snapshot keys in the overview cache namespace.
const (
	keyIndices = "indices"
	keyNews    = "news"
)

// SnapshotStore persists overview snapshots across restarts.
type SnapshotStore interface {
	StoreValue(namespace, key string, v interface{}, ttl time.Duration) error
	GetValue(namespace, key string, out interface{}) (found bool, fresh bool, err error)
}

// OverviewService owns the market overview. Refreshes replace the previous
// snapshot wholesale; reads only ever see memory or the persisted copy.
type OverviewService struct {
	market  domain.MarketDataProvider
	store   SnapshotStore
	emitter domain.EventEmitter
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	indices *IndicesSnapshot
	news    *NewsSnapshot
}

// NewOverviewService creates the overview service. store and emitter may be nil.
func NewOverviewService(market domain.MarketDataProvider, store SnapshotStore, emitter domain.EventEmitter, log zerolog.Logger) *OverviewService {
	return &OverviewService{
		market:  market,
		store:   store,
		emitter: emitter,
		log:     log.With().Str("service", "market_overview").Logger(),
		now:     time.Now,
	}
}

// RefreshIndices fetches every known index. Symbols that fail keep their
// previous value flagged stale; if all fail the old snapshot stays in place.
func (s *OverviewService) RefreshIndices(ctx context.Context) error {
	defer utils.OperationTimer("market_indices_refresh", slowRefresh, s.log)()

	previous := make(map[string]IndexQuote)
	if snap := s.currentIndices(); snap != nil {
		for _, q := range snap.Indices {
			previous[q.Symbol] = q
		}
	}

	rows := make([]IndexQuote, 0, len(KnownIndices))
	var lastErr error
	fetched := 0
	for _, idx := range KnownIndices {
		q, err := s.market.GetQuote(ctx, idx.Symbol)
		if err != nil {
			lastErr = err
			s.log.Warn().Err(err).Str("symbol", idx.Symbol).Msg("Failed to refresh index quote")
			if prev, ok := previous[idx.Symbol]; ok {
				prev.Stale = true
				rows = append(rows, prev)
			}
			continue
		}
		fetched++
		rows = append(rows, IndexQuote{
			Symbol:        idx.Symbol,
			Name:          idx.Name,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
		})
	}

	if fetched == 0 {
		s.emit(events.MarketOverviewUpdatedData{Part: keyIndices, Count: 0, Stale: true})
		return fmt.Errorf("failed to refresh indices: %w", lastErr)
	}

	snap := &IndicesSnapshot{Indices: rows, UpdatedAt: s.now().UTC(), Stale: fetched < len(KnownIndices)}
	s.mu.Lock()
	s.indices = snap
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.StoreValue(clientdata.NamespaceOverview, keyIndices, snap, clientdata.TTLOverview); err != nil {
			s.log.Warn().Err(err).Msg("Failed to persist indices snapshot")
		}
	}

	s.emit(events.MarketOverviewUpdatedData{Part: keyIndices, Count: len(rows), Stale: snap.Stale})
	s.log.Debug().Int("fetched", fetched).Msg("Indices refreshed")
	return nil
}

// RefreshNews replaces the news snapshot. On failure the old one stays.
func (s *OverviewService) RefreshNews(ctx context.Context) error {
	defer utils.OperationTimer("market_news_refresh", slowRefresh, s.log)()

	articles, err := s.market.GetNews(ctx, nil, NewsLimit)
	if err != nil {
		s.emit(events.MarketOverviewUpdatedData{Part: keyNews, Count: 0, Stale: true})
		return fmt.Errorf("failed to refresh news: %w", err)
	}
	if len(articles) > NewsLimit {
		articles = articles[:NewsLimit]
	}

	snap := &NewsSnapshot{Articles: articles, UpdatedAt: s.now().UTC()}
	s.mu.Lock()
	s.news = snap
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.StoreValue(clientdata.NamespaceOverview, keyNews, snap, clientdata.TTLOverview); err != nil {
			s.log.Warn().Err(err).Msg("Failed to persist news snapshot")
		}
	}

	s.emit(events.MarketOverviewUpdatedData{Part: keyNews, Count: len(articles)})
	return nil
}

// Indices returns the latest snapshot: memory, then the persisted copy
// (stale when expired), then the built-in fallback.
func (s *OverviewService) Indices() IndicesSnapshot {
	if snap := s.currentIndices(); snap != nil {
		return *snap
	}

	if s.store != nil {
		var snap IndicesSnapshot
		found, fresh, err := s.store.GetValue(clientdata.NamespaceOverview, keyIndices, &snap)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load persisted indices")
		}
		if found && err == nil {
			snap.Stale = !fresh
			return snap
		}
	}
	return fallbackIndices()
}

// News returns the latest news snapshot with the same precedence as Indices.
func (s *OverviewService) News() NewsSnapshot {
	s.mu.RLock()
	current := s.news
	s.mu.RUnlock()
	if current != nil {
		return *current
	}

	if s.store != nil {
		var snap NewsSnapshot
		found, fresh, err := s.store.GetValue(clientdata.NamespaceOverview, keyNews, &snap)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load persisted news")
		}
		if found && err == nil {
			snap.Stale = !fresh
			return snap
		}
	}
	return fallbackNews()
}

// Search passes through to the market data provider.
func (s *OverviewService) Search(ctx context.Context, keywords string) ([]domain.SymbolMatch, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, fmt.Errorf("%w: search keywords are required", domain.ErrInvalidInput)
	}
	matches, err := s.market.SearchSymbols(ctx, keywords)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.SymbolMatch{}, nil
		}
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	return matches, nil
}

func (s *OverviewService) currentIndices() *IndicesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indices
}

func (s *OverviewService) emit(data events.MarketOverviewUpdatedData) {
	if s.emitter != nil {
		s.emitter.Emit("", &data)
	}
}
