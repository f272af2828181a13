package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/studio-forecast/internal/logging"
	"github.com/iwvelando/studio-forecast/internal/server"
	"github.com/iwvelando/studio-forecast/internal/storage"
	"github.com/iwvelando/studio-forecast/internal/storage/postgres"
	"github.com/iwvelando/studio-forecast/internal/storage/sqlite"
	"github.com/iwvelando/studio-forecast/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", ".env", "optional file of environment overrides")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Fatal(fmt.Sprintf("failed to load %s", *envFile), err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		logging.Fatal(fmt.Sprintf("failed to load server configuration at %s", *configLocation), err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		logging.Fatal("failed to initialize logger", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, logger, cfg); err != nil {
		logger.Error("server stopped",
			zap.String("op", "main"),
			zap.Error(err),
		)
		os.Exit(1)
	}
}

func serve(ctx context.Context, logger *zap.Logger, cfg *server.Config) error {
	store, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close store", zap.String("op", "main.serve"), zap.Error(err))
		}
	}()

	handler, err := server.NewHandler(logger, store, cfg, version)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("HTTP server started",
		zap.String("op", "main.serve"),
		zap.String("address", cfg.Address),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("auth", cfg.Auth.Enabled()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.String("version", version),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", cfg.Address, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("graceful shutdown complete", zap.String("op", "main.serve"))
	return nil
}

// openStore connects the saved model store selected by cfg.
func openStore(ctx context.Context, cfg server.StorageConfig, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case constants.StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case constants.StorageDriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store at %s: %w", cfg.SQLitePath, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
