// Package server provides the HTTP server and routing for FinMate.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/config"
	"github.com/smasshh/finmate/internal/di"
	budgethandlers "github.com/smasshh/finmate/internal/modules/budgets/handlers"
	creditscorehandlers "github.com/smasshh/finmate/internal/modules/creditscore/handlers"
	expensehandlers "github.com/smasshh/finmate/internal/modules/expenses/handlers"
	markethandlers "github.com/smasshh/finmate/internal/modules/market/handlers"
	predictionhandlers "github.com/smasshh/finmate/internal/modules/predictions/handlers"
	settingshandlers "github.com/smasshh/finmate/internal/modules/settings/handlers"
	tradinghandlers "github.com/smasshh/finmate/internal/modules/trading/handlers"
	watchlisthandlers "github.com/smasshh/finmate/internal/modules/watchlist/handlers"
	"github.com/smasshh/finmate/internal/requestctx"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
	stopMonitor    context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	deps := SystemDeps{
		DataDir:     cfg.Config.DataDir,
		Subscribers: c.EventBus,
		MarketData:  c.MarketClient,
	}
	for _, db := range c.Databases() {
		deps.Databases = append(deps.Databases, db)
	}
	if c.Scheduler != nil {
		deps.Jobs = c.Scheduler
	}
	if c.LLMBreaker != nil {
		deps.Breaker = c.LLMBreaker
	}
	systemHandlers := NewSystemHandlers(deps, cfg.Log)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      c,
		systemHandlers: systemHandlers,
		statusMonitor:  NewStatusMonitor(systemHandlers, c.EventBus, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	// No WriteTimeout: it would cut long-lived websocket streams. API routes
	// get middleware.Timeout instead.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Router exposes the configured router (tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	if s.container.Metrics != nil {
		s.router.Use(s.container.Metrics.Middleware)
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestctx.HeaderUserID},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(requestctx.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container

	s.router.Get("/health", s.handleHealth)
	if c.Metrics != nil {
		s.router.Handle("/metrics", c.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		// The stream is long-lived, so it sits outside the timeout group
		stream := NewEventsStreamHandler(c.EventBus, s.cfg.AllowedOrigins, s.log)
		r.Get("/events/ws", stream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			creditscorehandlers.NewHandler(c.CreditScoreService, s.log).RegisterRoutes(r)
			expensehandlers.NewHandler(c.ExpenseService, s.log).RegisterRoutes(r)
			budgethandlers.NewHandler(c.BudgetService, s.log).RegisterRoutes(r)
			watchlisthandlers.NewHandler(c.WatchlistService, s.log).RegisterRoutes(r)
			tradinghandlers.NewTradingHandlers(c.TradingService, s.log).RegisterRoutes(r)
			predictionhandlers.NewHandler(c.PredictionService, s.log).RegisterRoutes(r)
			markethandlers.NewHandler(c.MarketOverview, s.log).RegisterRoutes(r)
			settingshandlers.NewHandler(c.SettingsService, s.log).RegisterRoutes(r)

			dashboard := NewDashboardHandler(c.WatchlistService, c.PredictionService, c.TradingService, s.log)
			r.Get("/dashboard", dashboard.HandleDashboard)

			s.systemHandlers.RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server and background monitors
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopMonitor = cancel
	s.statusMonitor.Start(ctx, 60*time.Second)
	s.log.Info().Msg("Status monitor started")

	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.stopMonitor != nil {
		s.stopMonitor()
	}
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
