package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendcast/internal/amqp"
	"spendcast/internal/core"
	"spendcast/internal/services"
)

// Forecaster is the part of the prediction service the worker drives.
type Forecaster interface {
	PredictNextMonth(ctx context.Context, category core.Category) (core.Prediction, error)
	RefreshAll(ctx context.Context) (services.RefreshSummary, error)
}

// ForecastWorker answers queued forecast requests and periodically refreshes
// every category.
type ForecastWorker struct {
	forecaster Forecaster
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewForecastWorker(forecaster Forecaster, interval time.Duration, logger *slog.Logger) *ForecastWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastWorker{
		forecaster: forecaster,
		interval:   interval,
		logger:     logger,
	}
}

// HandleForecastRequest processes one queued request. Requests that can never
// succeed (unknown category, not enough data) return nil so they are acked
// rather than redelivered.
func (w *ForecastWorker) HandleForecastRequest(ctx context.Context, msg *amqp.ForecastRequestMessage) error {
	w.logger.InfoContext(ctx, "Processing forecast request",
		"message_id", msg.MessageID,
		"category", msg.Category)

	if msg.Category == "" {
		return w.refresh(ctx)
	}

	category, err := core.ParseCategory(msg.Category)
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping forecast request", "message_id", msg.MessageID, "error", err)
		return nil
	}

	p, err := w.forecaster.PredictNextMonth(ctx, category)
	if services.IsNotEnoughData(err) {
		w.logger.InfoContext(ctx, "Category skipped, not enough data",
			"category", category.String(),
			"error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("forecast %s: %w", category, err)
	}

	w.logger.InfoContext(ctx, "Forecast stored",
		"prediction_id", p.ID,
		"category", p.Category.String(),
		"strategy", p.Strategy,
		"predicted_amount", p.PredictedAmount.String())
	return nil
}

// Start launches the periodic refresh. It refreshes once immediately.
func (w *ForecastWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("forecast worker is already running")
	}
	if w.interval <= 0 {
		return fmt.Errorf("invalid refresh interval %v", w.interval)
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Forecast worker started", "refresh_interval", w.interval)
	return nil
}

// Stop signals the refresh loop and waits for it or for ctx.
func (w *ForecastWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopCh)
	done := w.doneCh
	w.running = false
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.InfoContext(ctx, "Forecast worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Forecast worker stop timed out")
		return ctx.Err()
	}
}

func (w *ForecastWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ForecastWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.refresh(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Forecast refresh failed", "error", err)
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Forecast refresh failed", "error", err)
			}
		}
	}
}

func (w *ForecastWorker) refresh(ctx context.Context) error {
	start := time.Now()
	summary, err := w.forecaster.RefreshAll(ctx)
	w.logger.InfoContext(ctx, "Forecast refresh finished",
		"predicted", summary.Predicted,
		"skipped", summary.Skipped,
		"duration_ms", time.Since(start).Milliseconds())
	return err
}
