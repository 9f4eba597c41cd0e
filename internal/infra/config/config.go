package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	TelegramToken     string // optional; without it no bot runs and no pushes are sent
	AdminTelegramID   int64
	LogLevel          string
	Environment       string
	CronSpecTick      string // when both passes run
	PassTimeout       time.Duration
	WorkerConcurrency int
	AlertRules        AlertRules
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set (required with TELEGRAM_TOKEN)")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecTick = os.Getenv("CRON_SPEC_TICK")
	if cfg.CronSpecTick == "" {
		cfg.CronSpecTick = "0 * * * *" // Default: top of every hour
	}

	cfg.PassTimeout = 10 * time.Minute
	if raw := os.Getenv("PASS_TIMEOUT"); raw != "" {
		cfg.PassTimeout, err = time.ParseDuration(raw)
		if err != nil || cfg.PassTimeout <= 0 {
			return nil, fmt.Errorf("invalid PASS_TIMEOUT %q", raw)
		}
	}

	cfg.WorkerConcurrency = 4
	if raw := os.Getenv("WORKER_CONCURRENCY"); raw != "" {
		cfg.WorkerConcurrency, err = strconv.Atoi(raw)
		if err != nil || cfg.WorkerConcurrency <= 0 {
			return nil, fmt.Errorf("invalid WORKER_CONCURRENCY %q", raw)
		}
	}

	cfg.AlertRules = DefaultAlertRules()
	if path := os.Getenv("ALERT_RULES_FILE"); path != "" {
		cfg.AlertRules, err = LoadAlertRules(path)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
