package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/config"
	"github.com/smasshh/finmate/internal/database"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	finmatePath := cfg.DatabasePath
	if finmatePath == "" {
		finmatePath = filepath.Join(cfg.DataDir, "finmate.db")
	}

	// 1. finmate.db - expenses, budgets, credit scores, watchlist, trades, predictions, settings
	finmateDB, err := database.New(database.Config{
		Path:    finmatePath,
		Profile: database.ProfileStandard,
		Name:    "finmate",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize finmate database: %w", err)
	}
	container.FinmateDB = finmateDB

	// 2. cache.db - market data payloads, safe to delete
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().
		Str("finmate", finmatePath).
		Str("cache", cacheDB.Path()).
		Msg("Databases initialized")

	return container, nil
}
