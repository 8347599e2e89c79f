package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendcast/internal/cache"
	"spendcast/internal/cli"
	"spendcast/internal/core"
	apphttp "spendcast/internal/http"
	"spendcast/internal/log"
	"spendcast/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitBackend(context.Background(), cfg, logger)
	amqpClient := cli.InitAMQP(cfg, logger, false)

	ensemble := cli.NewEnsemble(cfg, logger)
	predictions := cli.NewPredictionService(cfg, store.Store, ensemble, amqpClient, logger)

	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	cacheManager.Register(txCache)
	cacheManager.StartCleanup(cfg.CacheTTL)

	var txOpts []services.TransactionOption
	if amqpClient != nil {
		txOpts = append(txOpts, services.WithForecastRequests(amqpClient))
	}
	transactions := services.NewTransactionService(store.Store, txCache,
		logger.WithComponent(log.ComponentTransaction).Logger, txOpts...)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		Dev:          cfg.IsDev(),
		RateLimitRPM: cfg.RateLimitRPM,
		Ready:        store.Store.Ping,
	}, predictions, transactions, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting forecast server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"strategies", ensemble.Names(),
		"amqp_enabled", amqpClient != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
