package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/modules/predictions"
	"github.com/smasshh/finmate/internal/modules/trading"
	"github.com/smasshh/finmate/internal/modules/watchlist"
	"github.com/smasshh/finmate/internal/requestctx"
)

type stubWatchlist struct {
	user    string
	entries []watchlist.QuotedEntry
	err     error
}

func (s *stubWatchlist) Quotes(_ context.Context, userID string) ([]watchlist.QuotedEntry, error) {
	s.user = userID
	return s.entries, s.err
}

type stubPredictions struct {
	preds []predictions.Prediction
	err   error
}

func (s *stubPredictions) List(string, string, int) ([]predictions.Prediction, error) {
	return s.preds, s.err
}

type stubPortfolio struct {
	pf  *trading.Portfolio
	err error
}

func (s *stubPortfolio) Portfolio(context.Context, string) (*trading.Portfolio, error) {
	return s.pf, s.err
}

func TestDashboard_LoadsAllSections(t *testing.T) {
	wl := &stubWatchlist{entries: []watchlist.QuotedEntry{{}}}
	h := NewDashboardHandler(
		wl,
		&stubPredictions{preds: []predictions.Prediction{{Symbol: "AAPL"}}},
		&stubPortfolio{pf: &trading.Portfolio{Cash: 1000}},
		zerolog.Nop(),
	)

	dash, failed := h.Load(context.Background(), "alice")

	assert.Empty(t, failed)
	assert.Equal(t, "alice", wl.user)
	assert.Len(t, dash.Watchlist, 1)
	assert.Len(t, dash.Predictions, 1)
	require.NotNil(t, dash.Portfolio)
	assert.Equal(t, 1000.0, dash.Portfolio.Cash)
}

func TestDashboard_PartialFailure(t *testing.T) {
	h := NewDashboardHandler(
		&stubWatchlist{err: errors.New("quote provider down")},
		&stubPredictions{preds: []predictions.Prediction{{Symbol: "MSFT"}}},
		&stubPortfolio{err: errors.New("db locked")},
		zerolog.Nop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req = req.WithContext(requestctx.WithUserID(req.Context(), "alice"))
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data     Dashboard `json:"data"`
		Metadata struct {
			Errors map[string]string `json:"errors"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Data.Watchlist)
	assert.Empty(t, body.Data.Watchlist)
	assert.Len(t, body.Data.Predictions, 1)
	assert.Nil(t, body.Data.Portfolio)
	assert.Contains(t, body.Metadata.Errors, "watchlist")
	assert.Contains(t, body.Metadata.Errors, "portfolio")
	assert.NotContains(t, body.Metadata.Errors, "predictions")
}
