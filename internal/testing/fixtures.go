package testing

import (
	"math"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// NewTrendingSeries returns n daily bars, newest first, whose close moves by step per day
// from start (oldest). A small sine wiggle keeps RSI away from its 0/100 extremes.
func NewTrendingSeries(n int, start, step float64) []domain.DailyBar {
	last := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.DailyBar, n)
	for i := 0; i < n; i++ {
		day := n - 1 - i // 0 = oldest
		closePrice := start + step*float64(day) + math.Sin(float64(day))*0.5
		bars[i] = domain.DailyBar{
			Date:   last.AddDate(0, 0, -i),
			Open:   closePrice - step/2,
			High:   closePrice + 1,
			Low:    closePrice - 1,
			Close:  closePrice,
			Volume: 1_000_000 + int64(day)*1000,
		}
	}
	return bars
}

// NewIndexQuoteFixtures returns quotes for the overview index symbols
func NewIndexQuoteFixtures() []domain.Quote {
	return []domain.Quote{
		{Symbol: "SPY", Price: 545.20, PreviousClose: 541.10, Change: 4.10, ChangePercent: 0.76},
		{Symbol: "QQQ", Price: 478.35, PreviousClose: 474.00, Change: 4.35, ChangePercent: 0.92},
		{Symbol: "DIA", Price: 391.80, PreviousClose: 392.40, Change: -0.60, ChangePercent: -0.15},
		{Symbol: "IWM", Price: 202.15, PreviousClose: 200.90, Change: 1.25, ChangePercent: 0.62},
	}
}

// NewNewsFixtures returns n news articles, newest first
func NewNewsFixtures(n int) []domain.NewsArticle {
	base := time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)
	out := make([]domain.NewsArticle, n)
	for i := range out {
		out[i] = domain.NewsArticle{
			Title:          "Market update " + string(rune('A'+i%26)),
			URL:            "https://news.example.com/" + string(rune('a'+i%26)),
			Source:         "Example Wire",
			PublishedAt:    base.Add(-time.Duration(i) * time.Hour),
			SentimentScore: 0.1,
			SentimentLabel: "Neutral",
		}
	}
	return out
}
