/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server: configuration,
  storage, compensation config, HTTP router, background jobs, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env supported)
  2. Open the SQLite store and run migrations
  3. Load the compensation configuration (positions, shifts, tax tables)
  4. Wire the API handler and router
  5. Start the absent-backfill scheduler
  6. Serve HTTP with graceful shutdown on SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  Compensation configuration JSON (default: payroll.json)
           Positions defined here are seeded into the store at startup.

ENVIRONMENT:
  APP_PORT              HTTP port (default 8080)
  APP_ENV               development | production
  LOG_LEVEL             debug | info | warn | error
  CORS_ORIGINS          Comma-separated allowed origins
  DB_PATH               SQLite file, ":memory:" for ephemeral
  ABSENT_BACKFILL_CRON  Five-field cron spec (default "50 23 * * *")

SEE ALSO:
  - api/server.go: Router configuration
  - factory/config.go: Compensation configuration format
  - jobs/backfill.go: The scheduled absent backfill
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/hcm"
	"github.com/warp/payroll-engine/jobs"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "payroll.json", "compensation configuration JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := api.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	compensation, err := loadCompensation(*configPath, logger)
	if err != nil {
		logger.Error("failed to load compensation config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	for _, pos := range compensation.Positions {
		if err := db.SavePosition(ctx, pos); err != nil {
			logger.Error("failed to seed position",
				slog.String("position", string(pos.ID)),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	for _, h := range compensation.Calendar.Holidays {
		if err := db.SaveHoliday(ctx, h); err != nil {
			logger.Error("failed to seed holiday",
				slog.String("holiday", h.Name),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	handler := api.NewHandler(db, db, compensation.Shifts, compensation.TaxPolicies, logger)
	router := api.NewRouter(handler, logger, api.RouterConfig{
		Env:         cfg.App.Env,
		CORSOrigins: cfg.App.CORSOrigins,
	})

	scheduler := jobs.NewScheduler(logger)
	backfill := jobs.NewAbsentBackfill(db, logger)
	if err := scheduler.Register(cfg.Jobs.AbsentBackfillSpec, backfill); err != nil {
		logger.Error("failed to schedule absent backfill", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			slog.Int("port", cfg.App.Port),
			slog.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadCompensation reads the compensation configuration file. A missing
// file is not fatal: the server starts empty and positions are created
// through the API instead.
func loadCompensation(path string, logger *slog.Logger) (*factory.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("no compensation config found, starting empty",
				slog.String("path", path))
			return &factory.Config{
				Positions:   make(map[hcm.PositionID]hcm.Position),
				TaxPolicies: make(map[hcm.PositionID]payroll.TaxPolicy),
				Shifts:      make(map[string]hcm.Shift),
				Calendar:    &hcm.ListHolidayCalendar{},
			}, nil
		}
		return nil, err
	}
	return factory.NewConfigFactory().Parse(string(data))
}
