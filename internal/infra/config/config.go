package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken        string
	DatabaseURL          string
	AdminTelegramID      int64
	LogLevel             string
	Environment          string
	CronSpecHourlyScan   string // Hourly scheduling check
	CronSpecDailyPlan    string // Daily planning housekeeping
	CronSpecMoodReminder string // Daily mood check-in sweep
	MoodLookbackDays     int    // Lookback for the boost calculation
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecHourlyScan = os.Getenv("CRON_SPEC_HOURLY_SCAN")
	if cfg.CronSpecHourlyScan == "" {
		cfg.CronSpecHourlyScan = "0 * * * *" // Default: every hour at minute 0
	}

	cfg.CronSpecDailyPlan = os.Getenv("CRON_SPEC_DAILY_PLAN")
	if cfg.CronSpecDailyPlan == "" {
		cfg.CronSpecDailyPlan = "5 0 * * *" // Default: 00:05 daily
	}

	cfg.CronSpecMoodReminder = os.Getenv("CRON_SPEC_MOOD_REMINDER")
	if cfg.CronSpecMoodReminder == "" {
		cfg.CronSpecMoodReminder = "0 20 * * *" // Default: 20:00 daily
	}

	lookbackStr := os.Getenv("MOOD_LOOKBACK_DAYS")
	if lookbackStr == "" {
		cfg.MoodLookbackDays = 1
	} else {
		cfg.MoodLookbackDays, err = strconv.Atoi(lookbackStr)
		if err != nil || cfg.MoodLookbackDays < 1 {
			return nil, fmt.Errorf("invalid MOOD_LOOKBACK_DAYS: %q", lookbackStr)
		}
	}

	return cfg, nil
}
