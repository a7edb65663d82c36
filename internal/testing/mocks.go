package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/smasshh/finmate/internal/domain"
)

// MockTextGenerator is a mock implementation of domain.TextGenerator for testing
type MockTextGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

// NewMockTextGenerator creates a generator that returns text
func NewMockTextGenerator(text string) *MockTextGenerator {
	return &MockTextGenerator{text: text}
}

// SetError makes every call fail with err
func (m *MockTextGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Generate returns the configured text or error
func (m *MockTextGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// Prompts returns every prompt received so far
func (m *MockTextGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockMarketData is a mock implementation of domain.MarketDataProvider for testing
type MockMarketData struct {
	mu      sync.RWMutex
	quotes  map[string]*domain.Quote
	series  map[string][]domain.DailyBar
	news    []domain.NewsArticle
	matches []domain.SymbolMatch
	err     error
	failing map[string]error
	calls   map[string]int
}

// NewMockMarketData creates an empty market data mock
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		quotes:  make(map[string]*domain.Quote),
		series:  make(map[string][]domain.DailyBar),
		failing: make(map[string]error),
		calls:   make(map[string]int),
	}
}

// SetQuote sets the quote returned for a symbol
func (m *MockMarketData) SetQuote(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbol = strings.ToUpper(symbol)
	m.quotes[symbol] = &domain.Quote{Symbol: symbol, Price: price, PreviousClose: price}
}

// SetFullQuote sets a complete quote
func (m *MockMarketData) SetFullQuote(q domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(q.Symbol)] = &q
}

// SetSeries sets the daily series returned for a symbol (newest first)
func (m *MockMarketData) SetSeries(symbol string, bars []domain.DailyBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[strings.ToUpper(symbol)] = bars
}

// SetNews sets the news returned by GetNews
func (m *MockMarketData) SetNews(news []domain.NewsArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = news
}

// SetMatches sets the symbol search results
func (m *MockMarketData) SetMatches(matches []domain.SymbolMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = matches
}

// SetError makes every call fail with err
func (m *MockMarketData) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// FailSymbol makes calls for one symbol fail with err
func (m *MockMarketData) FailSymbol(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[strings.ToUpper(symbol)] = err
}

// Calls returns how many times method was called
func (m *MockMarketData) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

func (m *MockMarketData) record(method, symbol string) error {
	m.calls[method]++
	if m.err != nil {
		return m.err
	}
	if err, ok := m.failing[strings.ToUpper(symbol)]; ok {
		return err
	}
	return nil
}

// GetQuote returns the configured quote
func (m *MockMarketData) GetQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetQuote", symbol); err != nil {
		return nil, err
	}
	q, ok := m.quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", symbol, domain.ErrNotFound)
	}
	cp := *q
	return &cp, nil
}

// GetDailySeries returns the configured series
func (m *MockMarketData) GetDailySeries(_ context.Context, symbol string) ([]domain.DailyBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetDailySeries", symbol); err != nil {
		return nil, err
	}
	bars, ok := m.series[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("series %s: %w", symbol, domain.ErrNotFound)
	}
	return bars, nil
}

// GetNews returns the configured news, cut to limit
func (m *MockMarketData) GetNews(_ context.Context, _ []string, limit int) ([]domain.NewsArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetNews", ""); err != nil {
		return nil, err
	}
	news := m.news
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	return news, nil
}

// SearchSymbols returns the configured matches
func (m *MockMarketData) SearchSymbols(_ context.Context, _ string) ([]domain.SymbolMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SearchSymbols", ""); err != nil {
		return nil, err
	}
	return m.matches, nil
}

// EmittedEvent is one event captured by MockEventEmitter
type EmittedEvent struct {
	UserID string
	Data   domain.EventData
}

// MockEventEmitter records emitted events
type MockEventEmitter struct {
	mu     sync.Mutex
	events []EmittedEvent
}

// NewMockEventEmitter creates an empty emitter
func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

// Emit records the event
func (m *MockEventEmitter) Emit(userID string, data domain.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, EmittedEvent{UserID: userID, Data: data})
}

// Events returns every recorded event
func (m *MockEventEmitter) Events() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmittedEvent(nil), m.events...)
}

// OfType returns the recorded events with the given type
func (m *MockEventEmitter) OfType(eventType string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.events {
		if e.Data.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
