package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/argus/internal/api"
	"github.com/wonny/argus/internal/api/handlers"
	"github.com/wonny/argus/internal/backtest"
	"github.com/wonny/argus/internal/conviction"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/pkg/config"
	"github.com/wonny/argus/pkg/database"
	"github.com/wonny/argus/pkg/logger"
	"github.com/wonny/argus/pkg/metrics"
	"github.com/wonny/argus/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                              - Health check
  GET  /metrics                             - Prometheus metrics
  POST /api/signals/refresh                 - Run financial signal aggregation
  POST /api/entities/resolve                - Resolve and validate mentions
  POST /api/conviction/score                - Score one entity
  GET  /api/conviction/history/{entity_id}  - Assessment history
  POST /api/backtest/run                    - Replay and score a backtest

Example:
  go run ./cmd/argus api
  go run ./cmd/argus api --port 8087`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argus API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to redis (optional, degrades gracefully)
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	// 5. Create metrics
	m := metrics.New()

	// 6. Create the signal aggregator
	aggregator, err := newAggregator(cfg, rdb, m, log)
	if err != nil {
		return err
	}

	// 7. Create the resolve/validate/score pipeline
	pipe, err := newPipeline(cfg, db, log)
	if err != nil {
		return err
	}

	// 8. Hot-reload the registry on file changes
	if cfg.Files.HotReload {
		watcher := registry.NewWatcher(pipe.registry, cfg.Files.RegistryPath, log)
		go func() {
			if err := watcher.Run(cmd.Context()); err != nil {
				log.WithError(err).Error("Registry watcher stopped")
			}
		}()
	}

	// 9. Create engines
	assessmentRepo := conviction.NewPostgresRepository(db.Pool)
	convictionEngine := conviction.NewEngine(pipe.registry, pipe.snapshots, assessmentRepo, log)
	backtestEngine := backtest.NewEngine(pipe.registry, pipe.snapshots, pipe.validator, log)

	// 10. Create handlers
	signalHandler := handlers.NewSignalHandler(aggregator, log)
	entityHandler := handlers.NewEntityHandler(pipe.registry, pipe.snapshots, pipe.validator, m, log)
	convictionHandler := handlers.NewConvictionHandler(convictionEngine, assessmentRepo, log)
	backtestHandler := handlers.NewBacktestHandler(backtestEngine, cfg.Files.GroundTruthPath, log)

	// 11. Create router and server
	router := api.NewRouter(signalHandler, entityHandler, convictionHandler, backtestHandler, m, log)
	server := api.New(cfg, log, router)

	// 12. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
