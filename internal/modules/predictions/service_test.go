package predictions

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	testingpkg "github.com/smasshh/finmate/internal/testing"
)

func setupService(t *testing.T) (*Service, *testingpkg.MockMarketData, *testingpkg.MockEventEmitter) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	t.Cleanup(cleanup)

	market := testingpkg.NewMockMarketData()
	emitter := testingpkg.NewMockEventEmitter()
	return NewService(NewRepository(db.Conn(), zerolog.Nop()), market, emitter, zerolog.Nop()), market, emitter
}

func TestService_PredictPersistsAndEmits(t *testing.T) {
	svc, market, emitter := setupService(t)
	market.SetSeries("AAPL", testingpkg.NewTrendingSeries(60, 100, 1))

	p, err := svc.Predict(context.Background(), "alice", "aapl", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "AAPL", p.Symbol)
	assert.Equal(t, TrendBullish, p.Trend)
	assert.Equal(t, DefaultHorizonDays, p.HorizonDays)

	stored, err := svc.List("alice", "", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, p.ID, stored[0].ID)
	require.NotNil(t, stored[0].SMA)
	assert.InDelta(t, *p.SMA, *stored[0].SMA, 1e-9)

	emitted := emitter.OfType(events.PredictionCreated)
	require.Len(t, emitted, 1)
	assert.Equal(t, p.ID, emitted[0].Data.(*events.PredictionCreatedData).PredictionID)
}

func TestService_OneRowPerRequest(t *testing.T) {
	svc, market, _ := setupService(t)
	market.SetSeries("MSFT", testingpkg.NewTrendingSeries(60, 300, -1))
	market.SetSeries("NVDA", testingpkg.NewTrendingSeries(60, 100, 0))
	ctx := context.Background()

	for _, sym := range []string{"MSFT", "MSFT", "NVDA"} {
		_, err := svc.Predict(ctx, "alice", sym, 0)
		require.NoError(t, err)
	}
	_, err := svc.Predict(ctx, "bob", "NVDA", 0)
	require.NoError(t, err)

	all, err := svc.List("alice", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	msft, err := svc.List("alice", "msft", 0)
	require.NoError(t, err)
	assert.Len(t, msft, 2)

	limited, err := svc.List("alice", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestService_PredictErrors(t *testing.T) {
	svc, market, _ := setupService(t)
	market.SetSeries("TINY", testingpkg.NewTrendingSeries(5, 10, 1))
	market.FailSymbol("DOWN", fmt.Errorf("series: %w", domain.ErrRateLimited))
	ctx := context.Background()

	_, err := svc.Predict(ctx, "alice", "not a symbol", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Predict(ctx, "alice", "TINY", 0)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = svc.Predict(ctx, "alice", "DOWN", 0)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = svc.Predict(ctx, "alice", "NOPE", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := svc.List("alice", "", 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
