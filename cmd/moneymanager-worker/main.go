package main

import (
	"context"
	"errors"
	"time"

	"moneymanager/internal/cli"
	"moneymanager/internal/config"
	"moneymanager/internal/log"
	"moneymanager/internal/services"
	"moneymanager/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.MustValidateConfig(logger, cfg)

	logger.Info("Starting moneymanager-worker")

	res := cli.MustCreateSource(context.Background(), logger, cfg)

	var snapshots services.SnapshotStore
	repo := cli.OpenSnapshotStore(logger, cfg.SnapshotDBPath)
	if repo != nil {
		snapshots = repo
	} else {
		logger.Warn("Refreshes will not be persisted without a snapshot store")
	}

	amqpClient := cli.ConnectAMQP(logger, cfg)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
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

	reports := services.NewReportService(res.Backend, snapshots, logger)
	w := worker.NewRefreshWorker(reports, cfg.RefreshInterval, logger)
	go w.Run(ctx)

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRefresh(ctx, w.HandleRefreshMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP not configured, running scheduled refreshes only",
			"interval", cfg.RefreshInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
