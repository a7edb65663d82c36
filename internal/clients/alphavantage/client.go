// Package alphavantage implements the market-data collaborator on top of the Alpha Vantage API.
//
// Alpha Vantage reports quota problems inside HTTP 200 bodies ("Note", "Information",
// "Error Message"), so every payload is inspected before it is parsed or cached.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

const (
	defaultBaseURL    = "https://www.alphavantage.co/query"
	defaultDailyLimit = 25

	ttlQuote  = 5 * time.Minute
	ttlDaily  = 6 * time.Hour
	ttlNews   = 10 * time.Minute
	ttlSearch = 24 * time.Hour
)

// PersistentCache is the durable payload cache consulted before and after API calls.
// Get returns stale data too; it is the fallback when the API fails.
type PersistentCache interface {
	Store(namespace, key string, data []byte, ttl time.Duration) error
	GetIfFresh(namespace, key string) ([]byte, error)
	Get(namespace, key string) ([]byte, error)
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Client is an Alpha Vantage API client with a local daily request budget,
// an in-memory TTL cache and an optional persistent cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	persistent PersistentCache
	log        zerolog.Logger

	rateMu       sync.Mutex
	dailyLimit   int
	requestsUsed int
	counterDay   string

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	now func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithDailyLimit overrides the local daily request budget.
func WithDailyLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.dailyLimit = limit
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPersistentCache enables cache-first reads and stale fallback.
func WithPersistentCache(pc PersistentCache) Option {
	return func(c *Client) { c.persistent = pc }
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log.With().Str("client", "alphavantage").Logger(),
		dailyLimit: defaultDailyLimit,
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.counterDay = c.now().UTC().Format("2006-01-02")
	return c
}

var _ domain.MarketDataProvider = (*Client)(nil)

// GetQuote returns the latest quote for symbol (GLOBAL_QUOTE).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = normalizeSymbol(symbol)
	body, err := c.fetch(ctx, "quote", "GLOBAL_QUOTE", map[string]string{"symbol": symbol}, ttlQuote)
	if err != nil {
		return nil, err
	}
	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote for %s: %w", symbol, err)
	}
	return quote, nil
}

// GetDailySeries returns up to ~100 daily bars, newest first (TIME_SERIES_DAILY compact).
func (c *Client) GetDailySeries(ctx context.Context, symbol string) ([]domain.DailyBar, error) {
	symbol = normalizeSymbol(symbol)
	body, err := c.fetch(ctx, "daily", "TIME_SERIES_DAILY", map[string]string{
		"symbol":     symbol,
		"outputsize": "compact",
	}, ttlDaily)
	if err != nil {
		return nil, err
	}
	bars, err := parseDailyTimeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse daily series for %s: %w", symbol, err)
	}
	return bars, nil
}

// GetNews returns market news and sentiment, optionally filtered by tickers (NEWS_SENTIMENT).
func (c *Client) GetNews(ctx context.Context, tickers []string, limit int) ([]domain.NewsArticle, error) {
	params := map[string]string{"sort": "LATEST"}
	if len(tickers) > 0 {
		normalized := make([]string, 0, len(tickers))
		for _, t := range tickers {
			normalized = append(normalized, normalizeSymbol(t))
		}
		params["tickers"] = strings.Join(normalized, ",")
	}
	if limit > 0 {
		params["limit"] = fmt.Sprintf("%d", limit)
	}

	body, err := c.fetch(ctx, "news", "NEWS_SENTIMENT", params, ttlNews)
	if err != nil {
		return nil, err
	}
	articles, err := parseNewsSentiment(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news: %w", err)
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// SearchSymbols finds symbols matching keywords (SYMBOL_SEARCH).
func (c *Client) SearchSymbols(ctx context.Context, keywords string) ([]domain.SymbolMatch, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return []domain.SymbolMatch{}, nil
	}
	body, err := c.fetch(ctx, "search", "SYMBOL_SEARCH", map[string]string{"keywords": keywords}, ttlSearch)
	if err != nil {
		return nil, err
	}
	matches, err := parseSymbolSearch(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse symbol search: %w", err)
	}
	return matches, nil
}

// fetch resolves a request through memory cache, fresh persistent cache, the API, and
// finally stale persistent data when the API fails.
func (c *Client) fetch(ctx context.Context, namespace, function string, params map[string]string, ttl time.Duration) ([]byte, error) {
	key := buildCacheKey(function, params)

	if cached, ok := c.getFromCache(key); ok {
		if body, ok := cached.([]byte); ok {
			return body, nil
		}
	}

	if c.persistent != nil {
		if body, err := c.persistent.GetIfFresh(namespace, key); err == nil && body != nil {
			c.setCache(key, body, ttl)
			return body, nil
		}
	}

	body, err := c.call(ctx, function, params)
	if err != nil {
		if stale := c.staleFallback(namespace, key); stale != nil {
			c.log.Warn().Err(err).Str("function", function).Msg("Serving stale market data after API failure")
			return stale, nil
		}
		return nil, err
	}

	c.setCache(key, body, ttl)
	if c.persistent != nil {
		if err := c.persistent.Store(namespace, key, body, ttl); err != nil {
			c.log.Warn().Err(err).Str("function", function).Msg("Failed to persist market data")
		}
	}
	return body, nil
}

func (c *Client) staleFallback(namespace, key string) []byte {
	if c.persistent == nil {
		return nil
	}
	body, err := c.persistent.Get(namespace, key)
	if err != nil {
		return nil
	}
	return body
}

// call performs one HTTP request and validates the payload.
func (c *Client) call(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: alpha vantage api key not configured", domain.ErrUnavailable)
	}
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", function)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %v", domain.ErrUnavailable, function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", function, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimitExceeded{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", domain.ErrUnavailable, function, resp.StatusCode)
	}

	if err := checkAPIError(body); err != nil {
		c.log.Warn().Err(err).Str("function", function).Msg("Alpha Vantage returned an error payload")
		return nil, err
	}

	return body, nil
}

// checkAPIError detects the error fields Alpha Vantage returns with HTTP 200.
func checkAPIError(body []byte) error {
	var envelope struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// The quota page is sometimes served as plain text.
		if strings.Contains(string(body), "Thank you for using Alpha Vantage") {
			return ErrRateLimitExceeded{Message: strings.TrimSpace(string(body))}
		}
		return nil
	}

	switch {
	case envelope.ErrorMessage != "":
		return ErrAPI{Message: envelope.ErrorMessage}
	case envelope.Note != "":
		return ErrRateLimitExceeded{Message: envelope.Note}
	case envelope.Information != "":
		if isRateLimitNotice(envelope.Information) {
			return ErrRateLimitExceeded{Message: envelope.Information}
		}
		return ErrAPI{Message: envelope.Information}
	}
	return nil
}

func isRateLimitNotice(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"rate limit", "call frequency", "requests per day", "api call volume"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// checkRateLimit consumes one request from the local daily budget.
func (c *Client) checkRateLimit() error {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	c.rollDayLocked()
	if c.requestsUsed >= c.dailyLimit {
		return ErrRateLimitExceeded{}
	}
	c.requestsUsed++
	return nil
}

// GetRemainingRequests returns how many requests remain in today's budget.
func (c *Client) GetRemainingRequests() int {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	c.rollDayLocked()
	return c.dailyLimit - c.requestsUsed
}

// ResetDailyCounter restores the full daily budget.
func (c *Client) ResetDailyCounter() {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	c.requestsUsed = 0
}

func (c *Client) rollDayLocked() {
	today := c.now().UTC().Format("2006-01-02")
	if today != c.counterDay {
		c.counterDay = today
		c.requestsUsed = 0
	}
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	entry, ok := c.cache[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *Client) setCache(key string, value interface{}, ttl time.Duration) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// ClearCache drops every in-memory entry.
func (c *Client) ClearCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// buildCacheKey renders function and sorted params, never including the API key.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(function)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
