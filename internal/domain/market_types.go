package domain

import "time"

// Quote is the latest price snapshot for a symbol.
type Quote struct {
	Symbol           string    `json:"symbol"`
	Open             float64   `json:"open"`
	High             float64   `json:"high"`
	Low              float64   `json:"low"`
	Price            float64   `json:"price"`
	Volume           int64     `json:"volume"`
	LatestTradingDay time.Time `json:"latest_trading_day"`
	PreviousClose    float64   `json:"previous_close"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"change_percent"`
}

// DailyBar is one OHLCV row of a daily time series.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NewsArticle is a market news item with its overall sentiment.
type NewsArticle struct {
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Summary        string    `json:"summary"`
	Source         string    `json:"source"`
	BannerImage    string    `json:"banner_image,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentScore float64   `json:"sentiment_score"`
	SentimentLabel string    `json:"sentiment_label"`
	Tickers        []string  `json:"tickers,omitempty"`
}

// SymbolMatch is one symbol-search result.
type SymbolMatch struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Region     string  `json:"region"`
	Currency   string  `json:"currency"`
	MatchScore float64 `json:"match_score"`
}
