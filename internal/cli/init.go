// Package cli provides the finctl commands and the start-up helpers shared
// with cmd/finboard.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/seed"
	"finboard/internal/services"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

// Store is a snapshot store that owns resources.
type Store interface {
	services.Store
	Close() error
}

// SetupLogger builds the application logger at level and installs it as the
// slog default. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := log.NewText(os.Stderr, lvl, log.ComponentApp)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldOperation, log.OpValidate, log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// Options maps the view settings of cfg onto service options.
func Options(cfg *config.Config) services.Options {
	opts := services.DefaultOptions()
	opts.Currency = cfg.Currency
	opts.HorizonDays = cfg.ForecastHorizon
	opts.SeriesMonths = cfg.SeriesMonths
	opts.BillWindowDays = cfg.UpcomingBillDays
	opts.PageSize = cfg.PageSize
	opts.CacheTTL = cfg.SnapshotCacheTTL
	return opts
}

// OpenStore opens the configured backend and seeds every book it does not
// hold yet.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (Store, error) {
	seeds, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}

	var store Store
	switch cfg.DataBackend {
	case config.BackendMemory:
		store = memory.New()
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			return nil, err
		}
		store = repo
	}

	if err := services.Bootstrap(ctx, store, seeds); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("Storage ready", "backend", cfg.DataBackend)
	return store, nil
}

// OpenPublisher connects to the broker when AMQP_URL is set. The returned
// publisher is nil when publishing is disabled.
func OpenPublisher(logger *log.Logger, cfg *config.Config) (services.Publisher, func() error, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP publishing disabled")
		return nil, func() error { return nil }, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		return nil, nil, err
	}
	return client, client.Close, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
