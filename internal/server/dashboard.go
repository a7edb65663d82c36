package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smasshh/finmate/internal/modules/predictions"
	"github.com/smasshh/finmate/internal/modules/trading"
	"github.com/smasshh/finmate/internal/modules/watchlist"
	"github.com/smasshh/finmate/internal/requestctx"
)

const dashboardPredictions = 10

// WatchlistQuoter returns the user's watchlist with current quotes.
type WatchlistQuoter interface {
	Quotes(ctx context.Context, userID string) ([]watchlist.QuotedEntry, error)
}

// PredictionLister returns recent predictions.
type PredictionLister interface {
	List(userID, symbol string, limit int) ([]predictions.Prediction, error)
}

// PortfolioReader values the user's paper portfolio.
type PortfolioReader interface {
	Portfolio(ctx context.Context, userID string) (*trading.Portfolio, error)
}

// Dashboard is the combined view refreshed by the home screen.
type Dashboard struct {
	Watchlist   []watchlist.QuotedEntry  `json:"watchlist"`
	Predictions []predictions.Prediction `json:"predictions"`
	Portfolio   *trading.Portfolio       `json:"portfolio,omitempty"`
}

// DashboardHandler loads the dashboard sections concurrently. A failing section
// is left empty and reported in metadata.errors.
type DashboardHandler struct {
	watchlist   WatchlistQuoter
	predictions PredictionLister
	portfolio   PortfolioReader
	log         zerolog.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(w WatchlistQuoter, p PredictionLister, pf PortfolioReader, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		watchlist:   w,
		predictions: p,
		portfolio:   pf,
		log:         log.With().Str("handler", "dashboard").Logger(),
	}
}

// Load fetches every section for userID.
func (h *DashboardHandler) Load(ctx context.Context, userID string) (Dashboard, map[string]string) {
	var (
		dash   = Dashboard{Watchlist: []watchlist.QuotedEntry{}, Predictions: []predictions.Prediction{}}
		mu     sync.Mutex
		failed = map[string]string{}
	)
	fail := func(section string, err error) {
		h.log.Warn().Err(err).Str("section", section).Str("user_id", userID).Msg("Dashboard section failed")
		mu.Lock()
		failed[section] = err.Error()
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		entries, err := h.watchlist.Quotes(ctx, userID)
		if err != nil {
			fail("watchlist", err)
			return nil
		}
		dash.Watchlist = entries
		return nil
	})
	g.Go(func() error {
		preds, err := h.predictions.List(userID, "", dashboardPredictions)
		if err != nil {
			fail("predictions", err)
			return nil
		}
		dash.Predictions = preds
		return nil
	})
	g.Go(func() error {
		pf, err := h.portfolio.Portfolio(ctx, userID)
		if err != nil {
			fail("portfolio", err)
			return nil
		}
		dash.Portfolio = pf
		return nil
	})
	_ = g.Wait()

	return dash, failed
}

// HandleDashboard handles GET /api/dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, failed := h.Load(r.Context(), requestctx.UserID(r.Context()))

	metadata := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if len(failed) > 0 {
		metadata["errors"] = failed
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"data":     dash,
		"metadata": metadata,
	})
}
