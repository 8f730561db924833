// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Jobs     JobsConfig
}

// AppConfig holds HTTP server configuration.
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    slog.Level
	CORSOrigins []string
}

type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for ephemeral runs.
	Path string
}

// JobsConfig holds the background scheduler configuration.
type JobsConfig struct {
	// AbsentBackfillSpec is the cron spec for the end-of-day job that
	// marks no-show employees Absent. Runs before midnight so the record
	// lands on the day it describes.
	AbsentBackfillSpec string
}

// Load reads configuration from the environment. A missing .env file is
// fine; exported variables always win over file entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:        port,
			Env:         getEnv("APP_ENV", "development"),
			LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "payroll.db"),
		},
		Jobs: JobsConfig{
			AbsentBackfillSpec: getEnv("ABSENT_BACKFILL_CRON", "50 23 * * *"),
		},
	}

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	return strings.Split(getEnv(key, fallback), ",")
}
