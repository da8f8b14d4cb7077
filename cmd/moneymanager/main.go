package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneymanager/internal/cache"
	"moneymanager/internal/cli"
	"moneymanager/internal/config"
	apphttp "moneymanager/internal/http"
	"moneymanager/internal/log"
	"moneymanager/internal/search"
	"moneymanager/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidateConfig(logger, cfg)

	res := cli.MustCreateSource(context.Background(), logger, cfg)

	var snapshots services.SnapshotStore
	var checks []apphttp.ReadinessCheck
	repo := cli.OpenSnapshotStore(logger, cfg.SnapshotDBPath)
	if repo != nil {
		snapshots = repo
		checks = append(checks, repo.Ping)
	}

	var publisher apphttp.Publisher
	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		publisher = amqpClient
		checks = append(checks, func(context.Context) error { return amqpClient.Ping() })
	}

	sessions := cache.NewLRUCache[*search.Session](cfg.SessionMax, cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Reports:         services.NewReportService(res.Backend, snapshots, logger),
		Search:          services.NewFilterService(res.Backend, sessions, logger),
		Publisher:       publisher,
		ReadinessChecks: checks,
		Logger:          logger,
		Currency:        cfg.DisplayCurrency,
		TopN:            cfg.TopN,
		RateLimit:       cfg.RateLimit,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if repo != nil {
			_ = repo.Close()
		}
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	})

	go cache.NewJanitor(logger.Logger, sessions).Run(ctx, time.Minute)

	logger.Info("Starting moneymanager server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"snapshots", repo != nil,
		"amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
