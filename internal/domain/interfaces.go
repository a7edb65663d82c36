// Package domain holds the types and collaborator contracts shared between FinMate modules.
// It has no infrastructure dependencies.
package domain

import "context"

// TextGenerator is the text-generation collaborator (an LLM completion API).
// Quota and network failures are both returned as errors; callers treat them the same.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MarketDataProvider is the market-data collaborator keyed by ticker symbol.
type MarketDataProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetDailySeries(ctx context.Context, symbol string) ([]DailyBar, error)
	GetNews(ctx context.Context, tickers []string, limit int) ([]NewsArticle, error)
	SearchSymbols(ctx context.Context, keywords string) ([]SymbolMatch, error)
}

// EventEmitter publishes domain events without knowing who listens.
type EventEmitter interface {
	Emit(userID string, data EventData)
}

// EventData is implemented by every typed event payload.
type EventData interface {
	EventType() string
}
