package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// parseFloat64 parses Alpha Vantage numeric strings. "None", "-" and junk become 0.
func parseFloat64(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == "None" || s == "null" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseFloat64Ptr is parseFloat64 for nullable fields.
func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "null" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseInt64 accepts plain integers as well as scientific/decimal forms.
func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "null" || s == "-" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseDateTime handles the datetime layouts used across endpoints, including the
// compact NEWS_SENTIMENT form (20240115T143000).
func parseDateTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"20060102T150405",
		"20060102T1504",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseDailyTimeSeries parses TIME_SERIES_DAILY, newest bar first.
func parseDailyTimeSeries(body []byte) ([]domain.DailyBar, error) {
	var raw struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode daily series: %w", err)
	}
	if len(raw.Series) == 0 {
		return nil, errNoData
	}

	bars := make([]domain.DailyBar, 0, len(raw.Series))
	for date, values := range raw.Series {
		d := parseDate(date)
		if d.IsZero() {
			continue
		}
		bars = append(bars, domain.DailyBar{
			Date:   d,
			Open:   parseFloat64(values["1. open"]),
			High:   parseFloat64(values["2. high"]),
			Low:    parseFloat64(values["3. low"]),
			Close:  parseFloat64(values["4. close"]),
			Volume: parseInt64(values["5. volume"]),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.After(bars[j].Date)
	})
	return bars, nil
}

// parseGlobalQuote parses GLOBAL_QUOTE. An empty quote object means the symbol is unknown.
func parseGlobalQuote(body []byte) (*domain.Quote, error) {
	var raw struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	if len(raw.Quote) == 0 || raw.Quote["01. symbol"] == "" {
		return nil, fmt.Errorf("%w: empty quote", domain.ErrNotFound)
	}

	q := raw.Quote
	return &domain.Quote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat64(q["02. open"]),
		High:             parseFloat64(q["03. high"]),
		Low:              parseFloat64(q["04. low"]),
		Price:            parseFloat64(q["05. price"]),
		Volume:           parseInt64(q["06. volume"]),
		LatestTradingDay: parseDate(q["07. latest trading day"]),
		PreviousClose:    parseFloat64(q["08. previous close"]),
		Change:           parseFloat64(q["09. change"]),
		ChangePercent:    parseFloat64(q["10. change percent"]),
	}, nil
}

func parseSymbolSearch(body []byte) ([]domain.SymbolMatch, error) {
	var raw struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode symbol search: %w", err)
	}

	matches := make([]domain.SymbolMatch, 0, len(raw.BestMatches))
	for _, m := range raw.BestMatches {
		matches = append(matches, domain.SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: parseFloat64(m["9. matchScore"]),
		})
	}
	return matches, nil
}

type newsFeedItem struct {
	Title                 string `json:"title"`
	URL                   string `json:"url"`
	TimePublished         string `json:"time_published"`
	Summary               string `json:"summary"`
	BannerImage           string `json:"banner_image"`
	Source                string `json:"source"`
	OverallSentimentScore any    `json:"overall_sentiment_score"`
	OverallSentimentLabel string `json:"overall_sentiment_label"`
	TickerSentiment       []struct {
		Ticker string `json:"ticker"`
	} `json:"ticker_sentiment"`
}

// parseNewsSentiment parses NEWS_SENTIMENT feed items.
func parseNewsSentiment(body []byte) ([]domain.NewsArticle, error) {
	var raw struct {
		Feed []newsFeedItem `json:"feed"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode news feed: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, len(raw.Feed))
	for _, item := range raw.Feed {
		if item.Title == "" {
			continue
		}
		tickers := make([]string, 0, len(item.TickerSentiment))
		for _, ts := range item.TickerSentiment {
			tickers = append(tickers, ts.Ticker)
		}
		articles = append(articles, domain.NewsArticle{
			Title:          item.Title,
			URL:            item.URL,
			Summary:        item.Summary,
			Source:         item.Source,
			BannerImage:    item.BannerImage,
			PublishedAt:    parseDateTime(item.TimePublished),
			SentimentScore: anyToFloat(item.OverallSentimentScore),
			SentimentLabel: item.OverallSentimentLabel,
			Tickers:        tickers,
		})
	}
	return articles, nil
}

// anyToFloat handles fields the API sends as either a JSON number or a string.
func anyToFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		return parseFloat64(val)
	default:
		return 0
	}
}
