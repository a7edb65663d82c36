package trading

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

type fixedStartingCash float64

func (f fixedStartingCash) StartingCash(string) float64 { return float64(f) }

type countingRecorder struct {
	sides []string
}

func (c *countingRecorder) RecordTrade(side string) { c.sides = append(c.sides, side) }

type serviceFixture struct {
	svc      *Service
	market   *testingpkg.MockMarketData
	emitter  *testingpkg.MockEventEmitter
	recorder *countingRecorder
}

func setupService(t *testing.T, startingCash float64) *serviceFixture {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "finmate")
	t.Cleanup(cleanup)

	f := &serviceFixture{
		market:   testingpkg.NewMockMarketData(),
		emitter:  testingpkg.NewMockEventEmitter(),
		recorder: &countingRecorder{},
	}
	f.svc = NewService(
		NewTradeRepository(db.Conn(), zerolog.Nop()),
		NewTradeSafetyService(zerolog.Nop()),
		f.market,
		fixedStartingCash(startingCash),
		f.emitter,
		f.recorder,
		zerolog.Nop(),
	)
	return f
}

func TestService_BuyDeductsCash(t *testing.T) {
	f := setupService(t, 100000)
	f.market.SetQuote("AAPL", 190.5)

	result, err := f.svc.ExecuteTrade(context.Background(), "alice", TradeRequest{Symbol: "aapl", Side: "BUY", Quantity: 5}, SourceManual)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Trade.Symbol)
	assert.Equal(t, SideBuy, result.Trade.Side)
	assert.InDelta(t, 952.5, result.Trade.Total, 1e-9)
	assert.InDelta(t, 99047.5, result.Cash, 1e-9)
	assert.Contains(t, result.Message, "Bought 5 AAPL")

	emitted := f.emitter.OfType(events.TradeExecuted)
	require.Len(t, emitted, 1)
	assert.Equal(t, "alice", emitted[0].UserID)
	data := emitted[0].Data.(*events.TradeExecutedData)
	assert.Equal(t, result.Trade.ID, data.TradeID)
	assert.Equal(t, []string{"buy"}, f.recorder.sides)
}

func TestService_RejectsBuyOverCash(t *testing.T) {
	f := setupService(t, 1000)
	f.market.SetQuote("NVDA", 120)

	_, err := f.svc.ExecuteTrade(context.Background(), "alice", TradeRequest{Symbol: "NVDA", Side: "buy", Quantity: 9}, SourceManual)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	history, err := f.svc.History("alice", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.emitter.Events())
}

func TestService_RejectsSellOverHoldings(t *testing.T) {
	f := setupService(t, 100000)
	f.market.SetQuote("TSLA", 200)
	ctx := context.Background()

	_, err := f.svc.ExecuteTrade(ctx, "alice", TradeRequest{Symbol: "TSLA", Side: "buy", Quantity: 2}, SourceManual)
	require.NoError(t, err)

	_, err = f.svc.ExecuteTrade(ctx, "alice", TradeRequest{Symbol: "TSLA", Side: "sell", Quantity: 3}, SourceManual)
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	// holdings are per user
	_, err = f.svc.ExecuteTrade(ctx, "bob", TradeRequest{Symbol: "TSLA", Side: "sell", Quantity: 1}, SourceManual)
	assert.ErrorIs(t, err, ErrInsufficientHoldings)
}

func TestService_CommandSellAll(t *testing.T) {
	f := setupService(t, 100000)
	f.market.SetQuote("AAPL", 190.5)
	ctx := context.Background()

	_, err := f.svc.ExecuteCommand(ctx, "alice", "buy 5 shares of AAPL")
	require.NoError(t, err)

	f.market.SetQuote("AAPL", 200)
	result, err := f.svc.ExecuteCommand(ctx, "alice", "sell all aapl")
	require.NoError(t, err)
	assert.InDelta(t, 5, result.Trade.Quantity, 1e-9)
	assert.Equal(t, SourceCommand, result.Trade.Source)
	assert.InDelta(t, 100047.5, result.Cash, 1e-9)

	_, err = f.svc.ExecuteCommand(ctx, "alice", "sell all AAPL")
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	_, err = f.svc.ExecuteCommand(ctx, "alice", "please buy something nice")
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestService_QuoteFailureRejectsTrade(t *testing.T) {
	f := setupService(t, 100000)
	f.market.FailSymbol("AAPL", fmt.Errorf("quote: %w", domain.ErrRateLimited))

	_, err := f.svc.ExecuteTrade(context.Background(), "alice", TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 1}, SourceManual)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestService_InvalidRequest(t *testing.T) {
	f := setupService(t, 100000)
	ctx := context.Background()

	tests := []TradeRequest{
		{Symbol: "AAPL", Side: "hold", Quantity: 1},
		{Symbol: "", Side: "buy", Quantity: 1},
		{Symbol: "AAPL", Side: "buy", Quantity: 0},
		{Symbol: "AAPL", Side: "buy", Quantity: -2},
	}
	for _, req := range tests {
		_, err := f.svc.ExecuteTrade(ctx, "alice", req, SourceManual)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", req)
	}
	assert.Zero(t, f.market.Calls("GetQuote"))
}

func TestService_Portfolio(t *testing.T) {
	f := setupService(t, 10000)
	ctx := context.Background()
	f.market.SetQuote("AAPL", 100)
	f.market.SetQuote("MSFT", 50)

	_, err := f.svc.ExecuteTrade(ctx, "alice", TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 10}, SourceManual)
	require.NoError(t, err)
	_, err = f.svc.ExecuteTrade(ctx, "alice", TradeRequest{Symbol: "MSFT", Side: "buy", Quantity: 20}, SourceManual)
	require.NoError(t, err)

	f.market.SetQuote("AAPL", 110)
	f.market.FailSymbol("MSFT", fmt.Errorf("quote: %w", domain.ErrUnavailable))

	p, err := f.svc.Portfolio(ctx, "alice")
	require.NoError(t, err)

	assert.InDelta(t, 8000, p.Cash, 1e-9)
	require.Len(t, p.Holdings, 2)

	aapl := p.Holdings[0]
	require.NotNil(t, aapl.CurrentPrice)
	assert.InDelta(t, 1100, aapl.MarketValue, 1e-9)
	assert.InDelta(t, 100, aapl.UnrealizedPL, 1e-9)

	msft := p.Holdings[1]
	assert.True(t, msft.PriceUnavailable)
	assert.Nil(t, msft.CurrentPrice)
	assert.InDelta(t, 1000, msft.MarketValue, 1e-9)

	assert.InDelta(t, 2100, p.HoldingsValue, 1e-9)
	assert.InDelta(t, 10100, p.TotalValue, 1e-9)
	assert.InDelta(t, 1, p.ReturnPercent, 1e-9)
}

func TestService_PortfolioBeforeFirstTrade(t *testing.T) {
	f := setupService(t, 25000)

	p, err := f.svc.Portfolio(context.Background(), "new-user")
	require.NoError(t, err)
	assert.InDelta(t, 25000, p.Cash, 1e-9)
	assert.Empty(t, p.Holdings)
	assert.Zero(t, p.ReturnPercent)
}
