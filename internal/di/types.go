// Package di provides dependency injection wiring and initialization.
//
// The Container is the single source of truth for service instances and is
// handed to the HTTP server, which builds its handlers from it.
package di

import (
	"github.com/smasshh/finmate/internal/clientdata"
	"github.com/smasshh/finmate/internal/clients/alphavantage"
	"github.com/smasshh/finmate/internal/clients/llm"
	"github.com/smasshh/finmate/internal/database"
	"github.com/smasshh/finmate/internal/domain"
	"github.com/smasshh/finmate/internal/events"
	"github.com/smasshh/finmate/internal/metrics"
	"github.com/smasshh/finmate/internal/modules/budgets"
	"github.com/smasshh/finmate/internal/modules/creditscore"
	"github.com/smasshh/finmate/internal/modules/expenses"
	"github.com/smasshh/finmate/internal/modules/market"
	"github.com/smasshh/finmate/internal/modules/predictions"
	"github.com/smasshh/finmate/internal/modules/settings"
	"github.com/smasshh/finmate/internal/modules/trading"
	"github.com/smasshh/finmate/internal/modules/watchlist"
	"github.com/smasshh/finmate/internal/reliability"
	"github.com/smasshh/finmate/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	FinmateDB *database.DB // user data
	CacheDB   *database.DB // market payload cache

	// Infrastructure
	Metrics   *metrics.Metrics
	EventBus  *events.Bus
	KafkaSink *events.KafkaSink // nil unless KAFKA_BROKERS is set
	Scheduler *scheduler.Scheduler

	// Clients
	ClientDataRepo *clientdata.Repository
	MarketClient   *alphavantage.Client
	LLMBreaker     *llm.Breaker
	TextGenerator  domain.TextGenerator // nil when no API key is configured

	// Services
	BaselineStore      budgets.BaselineStore
	SettingsService    *settings.Service
	ExpenseService     *expenses.Service
	BudgetService      *budgets.Service
	CreditScoreService *creditscore.Service
	WatchlistService   *watchlist.Service
	TradingService     *trading.Service
	PredictionService  *predictions.Service
	MarketOverview     *market.OverviewService
	BackupService      *reliability.BackupService // nil unless backups are configured
}

// Databases returns the open databases, user data first.
func (c *Container) Databases() []*database.DB {
	var out []*database.DB
	for _, db := range []*database.DB{c.FinmateDB, c.CacheDB} {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}

// Close closes every database. It is safe to call on a partially built container.
func (c *Container) Close() {
	for _, db := range c.Databases() {
		db.Close()
	}
}
