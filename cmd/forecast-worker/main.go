package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendcast/internal/cli"
	"spendcast/internal/log"
	"spendcast/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting forecast-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitBackend(context.Background(), cfg, logger)
	amqpClient := cli.InitAMQP(cfg, logger, true)

	ensemble := cli.NewEnsemble(cfg, logger)
	predictions := cli.NewPredictionService(cfg, store.Store, ensemble, amqpClient, logger)

	fw := worker.NewForecastWorker(predictions, cfg.RefreshInterval,
		logger.WithComponent(log.ComponentWorker).Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := fw.Stop(ctx); err != nil {
			logger.Error("Worker stop error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	if err := fw.Start(ctx); err != nil {
		logger.Error("Failed to start forecast worker", log.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeForecastRequests(ctx, fw.HandleForecastRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP consumption, periodic refresh only",
			"refresh_interval", cfg.RefreshInterval.String())
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
