// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/smasshh/finmate/internal/utils"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the database and backup staging (always absolute)
	DatabasePath   string
	Port           int
	DevMode        bool
	LogLevel       string
	LogPretty      bool
	AllowedOrigins []string

	LLM        LLMConfig
	MarketData MarketDataConfig
	Backup     BackupConfig

	RedisAddr    string   // Empty = in-memory budget baselines
	KafkaBrokers []string // Empty = events stay in-process
	KafkaTopic   string

	IndicesSchedule string
	NewsSchedule    string
	CleanupSchedule string
	BackupSchedule  string

	MaintenanceSchedule string

	DefaultStartingCash float64
}

// LLMConfig configures the text-generation collaborator.
type LLMConfig struct {
	APIKey              string
	APIURL              string
	Model               string
	MaxTokens           int
	Timeout             time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

// Enabled reports whether a text-generation API key is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// MarketDataConfig configures the Alpha Vantage market-data client.
type MarketDataConfig struct {
	APIKey     string
	BaseURL    string
	DailyLimit int
	Timeout    time.Duration
}

// BackupConfig configures database backups to S3-compatible storage.
type BackupConfig struct {
	Bucket    string
	Endpoint  string // Optional, for R2/MinIO
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string

	RetentionDays int // 0 keeps every backup
}

// Enabled reports whether backups have a destination bucket.
func (c BackupConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FINMATE_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		DatabasePath:   getEnv("FINMATE_DB_PATH", filepath.Join(absDataDir, "finmate.db")),
		Port:           getEnvAsInt("PORT", 8080),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LLM: LLMConfig{
			APIKey:              getEnv("LLM_API_KEY", ""),
			APIURL:              getEnv("LLM_API_URL", "https://api.openai.com/v1/chat/completions"),
			Model:               getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:           getEnvAsInt("LLM_MAX_TOKENS", 600),
			Timeout:             getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			BreakerMaxFailures:  getEnvAsInt("LLM_BREAKER_MAX_FAILURES", 3),
			BreakerResetTimeout: getEnvAsDuration("LLM_BREAKER_RESET", 2*time.Minute),
		},
		MarketData: MarketDataConfig{
			APIKey:     getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:    getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			DailyLimit: getEnvAsInt("ALPHAVANTAGE_DAILY_LIMIT", 25),
			Timeout:    getEnvAsDuration("ALPHAVANTAGE_TIMEOUT", 30*time.Second),
		},
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:    getEnv("BACKUP_S3_REGION", "auto"),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
			Prefix:    getEnv("BACKUP_S3_PREFIX", "backups"),

			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		KafkaBrokers:        getEnvAsList("KAFKA_BROKERS", nil),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "finmate.events"),
		IndicesSchedule:     getEnv("INDICES_SCHEDULE", "@every 5m"),
		NewsSchedule:        getEnv("NEWS_SCHEDULE", "@every 10m"),
		CleanupSchedule:     getEnv("CACHE_CLEANUP_SCHEDULE", "0 30 3 * * *"),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 0 4 * * *"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		DefaultStartingCash: getEnvAsFloat("DEFAULT_STARTING_CASH", 100000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MarketData.DailyLimit <= 0 {
		return fmt.Errorf("ALPHAVANTAGE_DAILY_LIMIT must be > 0")
	}
	if c.LLM.BreakerMaxFailures < 1 {
		return fmt.Errorf("LLM_BREAKER_MAX_FAILURES must be >= 1")
	}
	if c.DefaultStartingCash < 0 {
		return fmt.Errorf("DEFAULT_STARTING_CASH must be >= 0")
	}
	if c.Backup.Enabled() && (c.Backup.AccessKey == "") != (c.Backup.SecretKey == "") {
		return fmt.Errorf("BACKUP_S3_ACCESS_KEY and BACKUP_S3_SECRET_KEY must be set together")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	if out := utils.ParseCSV(os.Getenv(key)); len(out) > 0 {
		return out
	}
	return defaultValue
}
