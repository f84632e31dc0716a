/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env supported), apply flag overrides
  2. Initialize SQLite store; seed settings from the policy on first run
  3. Wire the ledger, request service, and API handler
  4. Start the holiday scheduler and optional demo scenario
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT, DB_PATH, ENV, LOG_LEVEL, POLICY_PRESET, POLICY_FILE,
  SEED_SCENARIO, HOLIDAY_AUTOSEED; see config package.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database on a different port
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loomhr/leave-engine/api"
	"github.com/loomhr/leave-engine/config"
	"github.com/loomhr/leave-engine/factory"
	"github.com/loomhr/leave-engine/leave"
	"github.com/loomhr/leave-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// Flags override environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})).With(
		slog.String("app", "leave-engine"),
		slog.String("env", cfg.Env),
	)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// Seed settings from the configured policy on first run
	ctx := context.Background()
	if _, err := store.GetSettings(ctx); errors.Is(err, leave.ErrSettingsNotFound) {
		policy, err := loadPolicy(cfg)
		if err != nil {
			logger.Error("failed to load policy", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := store.SaveSettings(ctx, policy.Settings); err != nil {
			logger.Error("failed to seed settings", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("seeded settings", slog.String("policy", policy.ID))
	} else if err != nil {
		logger.Error("failed to read settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire handler and router
	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler, logger)

	// Demo data, development only
	if cfg.SeedScenario != "" {
		if cfg.Env != "development" {
			logger.Error("SEED_SCENARIO is only allowed in development")
			os.Exit(1)
		}
		if err := api.LoadScenario(ctx, handler, cfg.SeedScenario); err != nil {
			logger.Error("failed to load scenario", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("loaded demo scenario", slog.String("scenario", cfg.SeedScenario))
	}

	// Keep the holiday calendar covered across year boundaries
	if cfg.HolidayAutoSeed {
		scheduler := api.NewHolidayScheduler(store, logger)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", slog.Int("port", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// loadPolicy resolves the seed policy: an explicit file wins over the
// preset name.
func loadPolicy(cfg *config.Config) (*factory.Policy, error) {
	if cfg.PolicyFile != "" {
		return factory.FromFile(cfg.PolicyFile)
	}
	return factory.Preset(cfg.PolicyPreset)
}
