package di

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/clientdata"
	"github.com/smasshh/finmate/internal/clients/alphavantage"
	"github.com/smasshh/finmate/internal/clients/llm"
	"github.com/smasshh/finmate/internal/config"
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
)

// InitializeServices creates clients and services. Databases must already be open.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.FinmateDB == nil || container.CacheDB == nil {
		return fmt.Errorf("container databases not initialized")
	}
	db := container.FinmateDB.Conn()

	// ==========================================
	// Infrastructure
	// ==========================================
	container.Metrics = metrics.New()
	container.EventBus = events.NewBus(log)

	if len(cfg.KafkaBrokers) > 0 {
		container.KafkaSink = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		container.EventBus.Subscribe(container.KafkaSink.Handle)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka event export enabled")
	}

	// ==========================================
	// Clients
	// ==========================================
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	container.MarketClient = alphavantage.NewClient(cfg.MarketData.APIKey, log,
		alphavantage.WithBaseURL(cfg.MarketData.BaseURL),
		alphavantage.WithDailyLimit(cfg.MarketData.DailyLimit),
		alphavantage.WithHTTPClient(&http.Client{Timeout: cfg.MarketData.Timeout}),
		alphavantage.WithPersistentCache(container.ClientDataRepo),
	)
	if cfg.MarketData.APIKey == "" {
		log.Warn().Msg("ALPHAVANTAGE_API_KEY not set, market data will come from cache and fallbacks only")
	}

	container.LLMBreaker = llm.NewBreaker(cfg.LLM.BreakerMaxFailures, cfg.LLM.BreakerResetTimeout, log)
	if cfg.LLM.Enabled() {
		container.TextGenerator = llm.NewClient(llm.Config{
			APIKey:    cfg.LLM.APIKey,
			APIURL:    cfg.LLM.APIURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, container.LLMBreaker, log)
	} else {
		log.Info().Msg("LLM_API_KEY not set, credit recommendations use the rule-based generator")
	}

	// ==========================================
	// Settings
	// ==========================================
	container.SettingsService = settings.NewService(settings.NewRepository(db, log), container.EventBus, log)
	container.SettingsService.SetDefault(settings.KeyStartingCash, cfg.DefaultStartingCash)

	// ==========================================
	// Expenses and budgets
	// ==========================================
	if cfg.RedisAddr != "" {
		container.BaselineStore = budgets.NewRedisBaselineStore(cfg.RedisAddr)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Budget baselines stored in Redis")
	} else {
		container.BaselineStore = budgets.NewMemoryBaselineStore()
	}

	container.ExpenseService = expenses.NewService(expenses.NewRepository(db, log), container.EventBus, log)

	monitor := budgets.NewThresholdMonitor(container.BaselineStore, container.EventBus, container.Metrics, log)
	container.BudgetService = budgets.NewService(
		budgets.NewRepository(db, log),
		container.ExpenseService,
		container.SettingsService,
		monitor,
		log,
	)
	// Expense writes re-run the budget threshold check
	container.ExpenseService.SetChangeListener(container.BudgetService)

	// ==========================================
	// Credit score
	// ==========================================
	container.CreditScoreService = creditscore.NewService(
		creditscore.NewRepository(db, log),
		creditscore.NewGenerator(container.TextGenerator, log),
		container.EventBus,
		container.Metrics,
		log,
	)

	// ==========================================
	// Market-facing modules
	// ==========================================
	container.WatchlistService = watchlist.NewService(watchlist.NewRepository(db, log), container.MarketClient, log)

	container.TradingService = trading.NewService(
		trading.NewTradeRepository(db, log),
		trading.NewTradeSafetyService(log),
		container.MarketClient,
		container.SettingsService,
		container.EventBus,
		container.Metrics,
		log,
	)

	container.PredictionService = predictions.NewService(
		predictions.NewRepository(db, log),
		container.MarketClient,
		container.EventBus,
		log,
	)

	container.MarketOverview = market.NewOverviewService(
		container.MarketClient,
		container.ClientDataRepo,
		container.EventBus,
		log,
	)

	log.Info().Msg("Services initialized")
	return nil
}
