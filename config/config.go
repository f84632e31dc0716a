// Package config loads server configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DBPath   string
	Env      string
	LogLevel slog.Level

	// PolicyPreset names a built-in factory policy used to seed settings
	// on first run. PolicyFile points at a JSON policy definition and
	// takes precedence.
	PolicyPreset string
	PolicyFile   string

	// SeedScenario loads a demo dataset on boot. Development only.
	SeedScenario string

	// HolidayAutoSeed keeps the holiday calendar seeded across year
	// boundaries.
	HolidayAutoSeed bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; a missing file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	return &Config{
		Port:            port,
		DBPath:          getEnv("DB_PATH", "leave.db"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        parseLevel(getEnv("LOG_LEVEL", "info")),
		PolicyPreset:    getEnv("POLICY_PRESET", "us-standard"),
		PolicyFile:      os.Getenv("POLICY_FILE"),
		SeedScenario:    os.Getenv("SEED_SCENARIO"),
		HolidayAutoSeed: getEnv("HOLIDAY_AUTOSEED", "true") == "true",
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
