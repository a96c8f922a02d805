package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	if err := run(context.Background(), logger); err != nil {
		logger.Error("finboard stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("finboard stopped gracefully")
}

// run serves until ctx is cancelled or a signal arrives. Resources opened
// here are released before it returns.
func run(ctx context.Context, logger *log.Logger) error {
	logger.Info("Starting finboard", log.FieldOperation, log.OpStartup)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}

	ctx, cancel := cli.SignalContext(ctx, logger)
	defer cancel()

	store, err := cli.OpenStore(ctx, logger.WithComponent(log.ComponentStorage), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pub, closePub, err := cli.OpenPublisher(logger.WithComponent(log.ComponentAMQP), cfg)
	if err != nil {
		return err
	}
	defer closePub()

	books := services.NewBooks(store, pub, cli.Options(cfg))
	resync := services.NewResyncProcessor(books, services.ResyncProcessorConfig{Interval: cfg.ResyncInterval})
	srv := apphttp.NewServer(":"+cfg.Port, books, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return resync.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			return err
		}
		return nil
	})
	return g.Wait()
}
