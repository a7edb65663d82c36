package market

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/clientdata"
	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	testingpkg "github.com/smasshh/finmate/internal/testing"
)

func newMarket() *testingpkg.MockMarketData {
	m := testingpkg.NewMockMarketData()
	for _, q := range testingpkg.NewIndexQuoteFixtures() {
		m.SetFullQuote(q)
	}
	m.SetNews(testingpkg.NewNewsFixtures(30))
	return m
}

func newCacheStore(t *testing.T) *clientdata.Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanup)
	return clientdata.NewRepository(db.Conn())
}

func TestOverview_FallbackBeforeFirstRefresh(t *testing.T) {
	svc := NewOverviewService(newMarket(), nil, nil, zerolog.Nop())

	indices := svc.Indices()
	assert.True(t, indices.Stale)
	assert.True(t, indices.Fallback)
	assert.Len(t, indices.Indices, len(KnownIndices))

	news := svc.News()
	assert.True(t, news.Fallback)
	assert.NotEmpty(t, news.Articles)
}

func TestOverview_RefreshIndices(t *testing.T) {
	market := newMarket()
	emitter := testingpkg.NewMockEventEmitter()
	svc := NewOverviewService(market, newCacheStore(t), emitter, zerolog.Nop())

	require.NoError(t, svc.RefreshIndices(context.Background()))

	snap := svc.Indices()
	assert.False(t, snap.Stale)
	assert.False(t, snap.Fallback)
	require.Len(t, snap.Indices, 4)
	assert.Equal(t, "SPY", snap.Indices[0].Symbol)
	assert.Equal(t, "S&P 500", snap.Indices[0].Name)
	assert.InDelta(t, 545.20, snap.Indices[0].Price, 1e-9)

	emitted := emitter.OfType(events.MarketOverviewUpdated)
	require.Len(t, emitted, 1)
	assert.Equal(t, "", emitted[0].UserID)
	data := emitted[0].Data.(*events.MarketOverviewUpdatedData)
	assert.Equal(t, "indices", data.Part)
	assert.Equal(t, 4, data.Count)
}

func TestOverview_PartialFailureKeepsPreviousValue(t *testing.T) {
	market := newMarket()
	svc := NewOverviewService(market, nil, nil, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, svc.RefreshIndices(ctx))

	market.FailSymbol("QQQ", fmt.Errorf("quote: %w", domain.ErrRateLimited))
	market.SetFullQuote(domain.Quote{Symbol: "SPY", Price: 550})
	require.NoError(t, svc.RefreshIndices(ctx))

	snap := svc.Indices()
	assert.True(t, snap.Stale)
	require.Len(t, snap.Indices, 4)
	assert.InDelta(t, 550, snap.Indices[0].Price, 1e-9)
	assert.False(t, snap.Indices[0].Stale)
	assert.Equal(t, "QQQ", snap.Indices[1].Symbol)
	assert.True(t, snap.Indices[1].Stale)
	assert.InDelta(t, 478.35, snap.Indices[1].Price, 1e-9)
}

func TestOverview_TotalFailureKeepsSnapshot(t *testing.T) {
	market := newMarket()
	svc := NewOverviewService(market, nil, nil, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, svc.RefreshIndices(ctx))
	before := svc.Indices()

	market.SetError(fmt.Errorf("down: %w", domain.ErrUnavailable))
	err := svc.RefreshIndices(ctx)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, before, svc.Indices())

	assert.ErrorIs(t, svc.RefreshNews(ctx), domain.ErrUnavailable)
	assert.True(t, svc.News().Fallback)
}

func TestOverview_PersistedSnapshotSurvivesRestart(t *testing.T) {
	store := newCacheStore(t)
	first := NewOverviewService(newMarket(), store, nil, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, first.RefreshIndices(ctx))
	require.NoError(t, first.RefreshNews(ctx))

	down := testingpkg.NewMockMarketData()
	down.SetError(errors.New("offline"))
	second := NewOverviewService(down, store, nil, zerolog.Nop())

	indices := second.Indices()
	assert.False(t, indices.Fallback)
	assert.False(t, indices.Stale)
	assert.Len(t, indices.Indices, 4)

	news := second.News()
	assert.False(t, news.Fallback)
	assert.Len(t, news.Articles, NewsLimit)
	assert.Zero(t, down.Calls("GetQuote"))
}

type expiredStore struct {
	inner *clientdata.Repository
}

func (s expiredStore) StoreValue(ns, key string, v interface{}, ttl time.Duration) error {
	return s.inner.StoreValue(ns, key, v, ttl)
}

func (s expiredStore) GetValue(ns, key string, out interface{}) (bool, bool, error) {
	found, _, err := s.inner.GetValue(ns, key, out)
	return found, false, err
}

func TestOverview_ExpiredPersistedSnapshotIsStale(t *testing.T) {
	store := expiredStore{inner: newCacheStore(t)}
	require.NoError(t, NewOverviewService(newMarket(), store, nil, zerolog.Nop()).RefreshIndices(context.Background()))

	snap := NewOverviewService(newMarket(), store, nil, zerolog.Nop()).Indices()
	assert.True(t, snap.Stale)
	assert.False(t, snap.Fallback)
}

func TestOverview_RefreshNewsReplaces(t *testing.T) {
	market := newMarket()
	svc := NewOverviewService(market, nil, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.RefreshNews(ctx))
	assert.Len(t, svc.News().Articles, NewsLimit)

	market.SetNews(testingpkg.NewNewsFixtures(3))
	require.NoError(t, svc.RefreshNews(ctx))
	assert.Len(t, svc.News().Articles, 3)
}

func TestOverview_Search(t *testing.T) {
	market := newMarket()
	market.SetMatches([]domain.SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc"}})
	svc := NewOverviewService(market, nil, nil, zerolog.Nop())

	matches, err := svc.Search(context.Background(), " apple ")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = svc.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
