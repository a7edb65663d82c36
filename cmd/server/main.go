// Package main is the entry point for the FinMate personal-finance backend.
//
// Startup order:
// 1. Load configuration (.env + environment) and initialize logging
// 2. Wire databases, clients and services through the DI container
// 3. Warm the market overview so the first request is not served from fallbacks
// 4. Start the scheduler, the optional Kafka event export and the HTTP server
// 5. Wait for SIGINT/SIGTERM and shut everything down in reverse order
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smasshh/finmate/internal/config"
	"github.com/smasshh/finmate/internal/di"
	"github.com/smasshh/finmate/internal/server"
	"github.com/smasshh/finmate/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting FinMate")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka export drains the bus queue until shutdown
	kafkaDone := make(chan struct{})
	if container.KafkaSink != nil {
		go func() {
			defer close(kafkaDone)
			container.KafkaSink.Run(ctx)
		}()
	} else {
		close(kafkaDone)
	}

	// Warm the market overview in the background; failures fall back to cached or
	// hardcoded payloads and are retried by the scheduler.
	go func() {
		warmCtx, warmCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer warmCancel()
		if err := container.MarketOverview.RefreshIndices(warmCtx); err != nil {
			log.Warn().Err(err).Msg("Initial market indices refresh failed")
		}
		if err := container.MarketOverview.RefreshNews(warmCtx); err != nil {
			log.Warn().Err(err).Msg("Initial market news refresh failed")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// The HTTP server gets up to 10 seconds to finish in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Running jobs finish before the databases close
	container.Scheduler.Stop()

	cancel()
	<-kafkaDone

	log.Info().Msg("Server stopped")
}
