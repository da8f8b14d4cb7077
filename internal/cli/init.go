// Package cli provides the process bootstrap shared by cmd/moneymanager and
// cmd/moneymanager-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneymanager/internal/amqp"
	"moneymanager/internal/backend"
	"moneymanager/internal/config"
	"moneymanager/internal/log"
	"moneymanager/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Component = component
	if cfg.LogFormat != "" {
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// MustValidateConfig exits the process when cfg is invalid.
func MustValidateConfig(logger *log.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// OpenSnapshotStore opens the SQLite snapshot store. It returns nil when the
// store is disabled or cannot be opened; reports then fall back to empty data.
func OpenSnapshotStore(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	if dbPath == "" {
		logger.Info("Snapshot store disabled")
		return nil
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Warn("Failed to open snapshot store, continuing without it", log.FieldError, err, "path", dbPath)
		return nil
	}
	version, dirty, err := storage.SchemaVersion(dbPath)
	if err != nil || dirty {
		logger.Warn("Snapshot schema unusable, continuing without it",
			log.FieldError, err, "path", dbPath, "schema_version", version, "dirty", dirty)
		_ = repo.Close()
		return nil
	}
	logger.Info("Snapshot store ready", "path", dbPath, "schema_version", version)
	return repo
}

// MustCreateSource builds the configured record source or exits.
func MustCreateSource(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to create record source", log.FieldError, err, log.FieldBackend, bcfg.Type)
		os.Exit(1)
	}
	return res
}

// ConnectAMQP connects to the broker. It returns nil when AMQP is not
// configured or the broker is unreachable.
func ConnectAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP broker", log.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// cancellation cleanup runs with a context bounded by timeout, then done is
// closed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
