package market

import (
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// fallbackIndices is served when neither memory nor the cache has a snapshot.
func fallbackIndices() IndicesSnapshot {
	return IndicesSnapshot{
		Indices: []IndexQuote{
			{Symbol: "SPY", Name: "S&P 500", Price: 545.20, Change: 4.10, ChangePercent: 0.76, Stale: true},
			{Symbol: "QQQ", Name: "Nasdaq 100", Price: 478.35, Change: 4.35, ChangePercent: 0.92, Stale: true},
			{Symbol: "DIA", Name: "Dow Jones", Price: 391.80, Change: -0.60, ChangePercent: -0.15, Stale: true},
			{Symbol: "IWM", Name: "Russell 2000", Price: 202.15, Change: 1.25, ChangePercent: 0.62, Stale: true},
		},
		UpdatedAt: time.Date(2024, 6, 28, 20, 0, 0, 0, time.UTC),
		Stale:     true,
		Fallback:  true,
	}
}

func fallbackNews() NewsSnapshot {
	return NewsSnapshot{
		Articles: []domain.NewsArticle{
			{
				Title:          "Live market news is temporarily unavailable",
				Summary:        "We could not reach the news provider. Headlines will refresh automatically.",
				Source:         "FinMate",
				SentimentLabel: "Neutral",
			},
		},
		Stale:    true,
		Fallback: true,
	}
}
