package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smasshh/finmate/internal/domain"
)

// TestNewClient tests client creation.
func TestNewClient(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	assert.NotNil(t, client)
	assert.Equal(t, "test-key", client.apiKey)
	assert.Equal(t, 25, client.GetRemainingRequests())
}

// TestRateLimiting tests the rate limiting functionality.
func TestRateLimiting(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	// Simulate using all requests
	for i := 0; i < 25; i++ {
		remaining := client.GetRemainingRequests()
		assert.Equal(t, 25-i, remaining)
		err := client.checkRateLimit()
		require.NoError(t, err)
	}

	// 26th request should fail
	err := client.checkRateLimit()
	assert.Error(t, err)
	assert.IsType(t, ErrRateLimitExceeded{}, err)
}

// TestResetDailyCounter tests counter reset.
func TestResetDailyCounter(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	// Use some requests
	for i := 0; i < 10; i++ {
		_ = client.checkRateLimit()
	}
	assert.Equal(t, 15, client.GetRemainingRequests())

	// Reset
	client.ResetDailyCounter()
	assert.Equal(t, 25, client.GetRemainingRequests())
}

// TestCaching tests the cache functionality.
func TestCaching(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	// Set a cache entry
	testData := "test data"
	client.setCache("test-key", testData, time.Hour)

	// Retrieve it
	cached, ok := client.getFromCache("test-key")
	assert.True(t, ok)
	assert.Equal(t, testData, cached)

	// Non-existent key
	_, ok = client.getFromCache("non-existent")
	assert.False(t, ok)
}

// TestCacheExpiration tests cache expiration.
func TestCacheExpiration(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	// Set with very short TTL
	client.setCache("test-key", "test data", time.Millisecond)

	// Wait for expiration
	time.Sleep(5 * time.Millisecond)

	// Should be expired
	_, ok := client.getFromCache("test-key")
	assert.False(t, ok)
}

// TestClearCache tests cache clearing.
func TestClearCache(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	client.setCache("key1", "data1", time.Hour)
	client.setCache("key2", "data2", time.Hour)

	client.ClearCache()

	_, ok1 := client.getFromCache("key1")
	_, ok2 := client.getFromCache("key2")
	assert.False(t, ok1)
	assert.False(t, ok2)
}

// TestBuildCacheKey tests cache key generation.
func TestBuildCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		function string
		params   map[string]string
	}{
		{
			name:     "Simple function",
			function: "OVERVIEW",
			params:   map[string]string{"symbol": "IBM"},
		},
		{
			name:     "Multiple params",
			function: "TIME_SERIES_DAILY",
			params: map[string]string{
				"symbol":     "AAPL",
				"outputsize": "full",
			},
		},
		{
			name:     "With apikey excluded",
			function: "SMA",
			params: map[string]string{
				"symbol": "MSFT",
				"apikey": "secret", // Should be excluded
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := buildCacheKey(tt.function, tt.params)
			assert.Contains(t, key, tt.function)
			assert.NotContains(t, key, "apikey=")
		})
	}
}

// TestParseFloat64 tests float parsing.
func TestParseFloat64(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"null", 0},
		{"-", 0},
		{"50.5%", 50.5},
		{"invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseFloat64(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestParseFloat64Ptr tests nullable float parsing.
func TestParseFloat64Ptr(t *testing.T) {
	tests := []struct {
		input    string
		isNil    bool
		expected float64
	}{
		{"123.45", false, 123.45},
		{"None", true, 0},
		{"", true, 0},
		{"null", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseFloat64Ptr(tt.input)
			if tt.isNil {
				assert.Nil(t, result)
			} else {
				require.NotNil(t, result)
				assert.Equal(t, tt.expected, *result)
			}
		})
	}
}

// TestParseInt64 tests integer parsing.
func TestParseInt64(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"12345", 12345},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"1.5E10", 15000000000},
		{"123.45", 123},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseInt64(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestParseDate tests date parsing.
func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		year  int
		month time.Month
		day   int
	}{
		{"2024-01-15", 2024, time.January, 15},
		{"2023-12-31", 2023, time.December, 31},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseDate(tt.input)
			assert.Equal(t, tt.year, result.Year())
			assert.Equal(t, tt.month, result.Month())
			assert.Equal(t, tt.day, result.Day())
		})
	}
}

// TestParseDateTime tests datetime parsing.
func TestParseDateTime(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"2024-01-15 14:30:00", true},
		{"2024-01-15", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseDateTime(tt.input)
			if tt.expected {
				assert.False(t, result.IsZero())
			} else {
				assert.True(t, result.IsZero())
			}
		})
	}
}

// TestParseDailyTimeSeries tests daily time series parsing.
func TestParseDailyTimeSeries(t *testing.T) {
	jsonData := `{
		"Meta Data": {
			"1. Information": "Daily Prices",
			"2. Symbol": "IBM"
		},
		"Time Series (Daily)": {
			"2024-01-15": {
				"1. open": "185.00",
				"2. high": "186.50",
				"3. low": "184.50",
				"4. close": "186.20",
				"5. volume": "3456789"
			},
			"2024-01-14": {
				"1. open": "184.50",
				"2. high": "185.50",
				"3. low": "184.00",
				"4. close": "185.00",
				"5. volume": "3214567"
			}
		}
	}`

	prices, err := parseDailyTimeSeries([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Should be sorted newest first
	assert.Equal(t, 2024, prices[0].Date.Year())
	assert.Equal(t, time.January, prices[0].Date.Month())
	assert.Equal(t, 15, prices[0].Date.Day())
	assert.Equal(t, 185.0, prices[0].Open)
	assert.Equal(t, 186.5, prices[0].High)
	assert.Equal(t, 184.5, prices[0].Low)
	assert.Equal(t, 186.2, prices[0].Close)
	assert.Equal(t, int64(3456789), prices[0].Volume)
}

// TestParseGlobalQuote tests global quote parsing.
func TestParseGlobalQuote(t *testing.T) {
	jsonData := `{
		"Global Quote": {
			"01. symbol": "IBM",
			"02. open": "185.00",
			"03. high": "186.50",
			"04. low": "184.50",
			"05. price": "186.20",
			"06. volume": "3456789",
			"07. latest trading day": "2024-01-15",
			"08. previous close": "185.00",
			"09. change": "1.20",
			"10. change percent": "0.65%"
		}
	}`

	quote, err := parseGlobalQuote([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, "IBM", quote.Symbol)
	assert.Equal(t, 185.0, quote.Open)
	assert.Equal(t, 186.5, quote.High)
	assert.Equal(t, 184.5, quote.Low)
	assert.Equal(t, 186.2, quote.Price)
	assert.Equal(t, int64(3456789), quote.Volume)
	assert.Equal(t, 185.0, quote.PreviousClose)
	assert.Equal(t, 1.2, quote.Change)
	assert.Equal(t, 0.65, quote.ChangePercent)
}

// TestParseSymbolSearch tests symbol search parsing.
func TestParseSymbolSearch(t *testing.T) {
	jsonData := `{
		"bestMatches": [
			{
				"1. symbol": "IBM",
				"2. name": "International Business Machines Corp",
				"3. type": "Equity",
				"4. region": "United States",
				"5. marketOpen": "09:30",
				"6. marketClose": "16:00",
				"7. timezone": "UTC-05",
				"8. currency": "USD",
				"9. matchScore": "1.0000"
			}
		]
	}`

	matches, err := parseSymbolSearch([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, "IBM", matches[0].Symbol)
	assert.Equal(t, "International Business Machines Corp", matches[0].Name)
	assert.Equal(t, "Equity", matches[0].Type)
	assert.Equal(t, "USD", matches[0].Currency)
}

func TestParseGlobalQuote_EmptyIsNotFound(t *testing.T) {
	_, err := parseGlobalQuote([]byte(`{"Global Quote": {}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseNewsSentiment(t *testing.T) {
	jsonData := `{
		"items": "2",
		"feed": [
			{
				"title": "Markets rally on rate hopes",
				"url": "https://example.com/a",
				"time_published": "20240115T143000",
				"summary": "Stocks rose.",
				"source": "Reuters",
				"overall_sentiment_score": 0.31,
				"overall_sentiment_label": "Somewhat-Bullish",
				"ticker_sentiment": [{"ticker": "SPY"}, {"ticker": "QQQ"}]
			},
			{
				"title": "",
				"url": "https://example.com/skip"
			}
		]
	}`

	articles, err := parseNewsSentiment([]byte(jsonData))
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Markets rally on rate hopes", a.Title)
	assert.Equal(t, "Reuters", a.Source)
	assert.Equal(t, 0.31, a.SentimentScore)
	assert.Equal(t, []string{"SPY", "QQQ"}, a.Tickers)
	assert.Equal(t, 14, a.PublishedAt.Hour())
	assert.Equal(t, 30, a.PublishedAt.Minute())
}

// TestErrorTypes tests error type implementations.
func TestErrorTypes(t *testing.T) {
	t.Run("ErrRateLimitExceeded", func(t *testing.T) {
		err := ErrRateLimitExceeded{}
		assert.Contains(t, err.Error(), "rate limit")
		assert.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("ErrAPI", func(t *testing.T) {
		err := ErrAPI{Message: "Invalid API call"}
		assert.Contains(t, err.Error(), "Invalid API call")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

// TestAPIErrorDetection tests detection of API error responses.
func TestAPIErrorDetection(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		errorType error
	}{
		{
			name:      "Rate limit note",
			body:      `{"Note": "API call frequency is limited"}`,
			errorType: ErrRateLimitExceeded{},
		},
		{
			name:      "Daily quota information",
			body:      `{"Information": "Our standard API rate limit is 25 requests per day."}`,
			errorType: ErrRateLimitExceeded{},
		},
		{
			name:      "Premium endpoint information",
			body:      `{"Information": "This is a premium endpoint."}`,
			errorType: ErrAPI{},
		},
		{
			name:      "Error message",
			body:      `{"Error Message": "Invalid symbol"}`,
			errorType: ErrAPI{},
		},
		{
			name:      "Thank you message",
			body:      `Thank you for using Alpha Vantage!`,
			errorType: ErrRateLimitExceeded{},
		},
		{
			name: "Valid response",
			body: `{"data": "valid"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAPIError([]byte(tt.body))
			if tt.errorType == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.IsType(t, tt.errorType, err)
		})
	}
}

const quoteBody = `{"Global Quote": {"01. symbol": "AAPL", "05. price": "190.50", "08. previous close": "188.00", "09. change": "2.50", "10. change percent": "1.33%"}}`

type memoryPersistentCache struct {
	fresh map[string][]byte
	stale map[string][]byte
}

func newMemoryPersistentCache() *memoryPersistentCache {
	return &memoryPersistentCache{fresh: map[string][]byte{}, stale: map[string][]byte{}}
}

func (m *memoryPersistentCache) Store(namespace, key string, data []byte, _ time.Duration) error {
	m.fresh[namespace+"/"+key] = data
	m.stale[namespace+"/"+key] = data
	return nil
}

func (m *memoryPersistentCache) GetIfFresh(namespace, key string) ([]byte, error) {
	return m.fresh[namespace+"/"+key], nil
}

func (m *memoryPersistentCache) Get(namespace, key string) ([]byte, error) {
	data, ok := m.stale[namespace+"/"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func TestGetQuote_HTTP(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	client := NewClient("test-key", zerolog.Nop(), WithBaseURL(srv.URL))

	quote, err := client.GetQuote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, 190.5, quote.Price)
	assert.Equal(t, 1.33, quote.ChangePercent)

	// Second call is served from memory.
	_, err = client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 24, client.GetRemainingRequests())
}

func TestGetQuote_RateLimitPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", zerolog.Nop(), WithBaseURL(srv.URL))

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestGetQuote_StaleFallback(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	cache := newMemoryPersistentCache()
	client := NewClient("test-key", zerolog.Nop(), WithBaseURL(srv.URL), WithPersistentCache(cache))

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	// Expire everything that counts as fresh and make the API fail.
	client.ClearCache()
	cache.fresh = map[string][]byte{}
	fail.Store(true)

	quote, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, quote.Price)
}

func TestGetQuote_NoAPIKey(t *testing.T) {
	client := NewClient("", zerolog.Nop())

	_, err := client.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSearchSymbols_EmptyKeywords(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	matches, err := client.SearchSymbols(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 25, client.GetRemainingRequests())
}

func TestGetNews_TickersAndLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NEWS_SENTIMENT", r.URL.Query().Get("function"))
		assert.Equal(t, "SPY,QQQ", r.URL.Query().Get("tickers"))
		_, _ = w.Write([]byte(`{"feed": [
			{"title": "one", "time_published": "20240115T143000"},
			{"title": "two", "time_published": "20240115T120000"},
			{"title": "three", "time_published": "20240115T100000"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", zerolog.Nop(), WithBaseURL(srv.URL))

	articles, err := client.GetNews(context.Background(), []string{"spy", "qqq"}, 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "one", articles[0].Title)
}

func TestDailyCounterRollsOver(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())
	day := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return day }
	client.counterDay = "2024-01-15"

	for i := 0; i < 25; i++ {
		require.NoError(t, client.checkRateLimit())
	}
	assert.Equal(t, 0, client.GetRemainingRequests())

	day = day.Add(24 * time.Hour)
	assert.Equal(t, 25, client.GetRemainingRequests())
}

// BenchmarkParseFloat64 benchmarks float parsing.
func BenchmarkParseFloat64(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseFloat64("123.456789")
	}
}

// BenchmarkCacheOperations benchmarks cache read/write.
func BenchmarkCacheOperations(b *testing.B) {
	client := NewClient("test-key", zerolog.Nop())

	b.Run("Set", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			client.setCache("key", "value", time.Hour)
		}
	})

	b.Run("Get", func(b *testing.B) {
		client.setCache("key", "value", time.Hour)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = client.getFromCache("key")
		}
	})
}

func TestInterfaceImplementation(t *testing.T) {
	var _ domain.MarketDataProvider = (*Client)(nil)
}
