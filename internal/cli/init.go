// Package cli holds the process bootstrap shared by cmd/forecast and
// cmd/forecast-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendcast/internal/amqp"
	"spendcast/internal/backend"
	"spendcast/internal/config"
	"spendcast/internal/forecast"
	"spendcast/internal/log"
	"spendcast/internal/services"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given LOG_LEVEL and makes it
// the slog default. Unknown levels fall back to info with a warning.
func SetupLogger(level string) *log.Logger {
	lvl, levelErr := log.ParseLevel(level)

	cfg := log.DefaultConfig()
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)

	if levelErr != nil {
		logger.Warn("Invalid log level, using info", log.FieldError, levelErr)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and exits the process when it is
// invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the configured store or exits.
func InitBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.Result {
	bl := logger.WithComponent(log.ComponentBackend)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		bl.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(bl.Logger).Create(ctx, bcfg)
	if err != nil {
		bl.Error("Failed to initialize backend", log.FieldError, err, "backend", bcfg.Type.String())
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker when AMQP_URL is set. It returns nil when
// AMQP is disabled or, unless required, when the broker is unreachable.
func InitAMQP(cfg *config.Config, logger *log.Logger, required bool) *amqp.Client {
	al := logger.WithComponent(log.ComponentAMQP)

	if cfg.AMQPURL == "" {
		al.Info("AMQP disabled, no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, al.Logger)
	if err != nil {
		if required {
			al.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		al.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	al.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewEnsemble builds the strategy registry and arbiter from configuration.
// The registry and the arbiter share one UTC clock.
func NewEnsemble(cfg *config.Config, logger *log.Logger) *forecast.Ensemble {
	clock := func() time.Time { return time.Now().UTC() }

	opts := []forecast.EnsembleOption{
		forecast.WithClock(clock),
		forecast.WithLogger(logger.WithComponent(log.ComponentForecast).Logger),
	}
	if cfg.ForecastParallel {
		opts = append(opts, forecast.WithParallel(cfg.ForecastWorkers))
	}
	return forecast.NewEnsemble(forecast.NewRegistry(cfg.ForecastSettings(), clock), opts...)
}

// NewPredictionService wires the prediction use case. publisher may be nil.
func NewPredictionService(cfg *config.Config, store services.PredictionStore, ensemble *forecast.Ensemble, publisher *amqp.Client, logger *log.Logger) *services.PredictionService {
	opts := []services.PredictionOption{
		services.WithMinHistory(cfg.MinHistoryMonths),
		services.WithServiceLogger(logger.WithComponent(log.ComponentPrediction).Logger),
	}
	// a nil *amqp.Client must not become a non-nil interface
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return services.NewPredictionService(store, ensemble, opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After the
// signal, cleanup runs with a context bounded by timeout; done is closed when
// it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

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
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
