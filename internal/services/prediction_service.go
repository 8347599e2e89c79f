package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendcast/internal/core"
	"spendcast/internal/forecast"
	"spendcast/internal/ports"
)

// EnsembleName labels the service-level history precheck in
// InsufficientDataError.
const EnsembleName = "ENSEMBLE"

// PredictionStore is what a backend provides for forecasting.
type PredictionStore interface {
	ports.HistoryReader
	ports.PredictionWriter
	ports.PredictionLister
}

// EventPublisher announces persisted predictions.
type EventPublisher interface {
	PublishPredictionCreated(ctx context.Context, p core.Prediction) error
}

// PredictionService fetches a category's history, runs the ensemble, persists
// the winner and announces it.
type PredictionService struct {
	store      PredictionStore
	ensemble   *forecast.Ensemble
	publisher  EventPublisher
	minHistory int
	logger     *slog.Logger
}

type PredictionOption func(*PredictionService)

// WithPublisher enables prediction.created events. Publishing failures are
// logged and never fail the request.
func WithPublisher(p EventPublisher) PredictionOption {
	return func(s *PredictionService) { s.publisher = p }
}

// WithMinHistory rejects categories with fewer monthly points before the
// ensemble runs.
func WithMinHistory(months int) PredictionOption {
	return func(s *PredictionService) { s.minHistory = months }
}

func WithServiceLogger(logger *slog.Logger) PredictionOption {
	return func(s *PredictionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewPredictionService(store PredictionStore, ensemble *forecast.Ensemble, opts ...PredictionOption) *PredictionService {
	s := &PredictionService{
		store:      store,
		ensemble:   ensemble,
		minHistory: 1,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictNextMonth forecasts category for the month after today. It returns a
// *forecast.InsufficientDataError when the history is too short and
// forecast.ErrNoViableModel when every strategy abstains.
func (s *PredictionService) PredictNextMonth(ctx context.Context, category core.Category) (core.Prediction, error) {
	if !category.IsValid() {
		return core.Prediction{}, fmt.Errorf("%w: %q", core.ErrInvalidCategory, string(category))
	}

	observations, err := s.store.ListObservations(ctx, category)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("load history for %s: %w", category, err)
	}

	series := forecast.Aggregate(observations)
	if len(series) < s.minHistory {
		return core.Prediction{}, &forecast.InsufficientDataError{
			Strategy: EnsembleName,
			Required: s.minHistory,
			Actual:   len(series),
		}
	}

	prediction, err := s.ensemble.SelectBest(series, category)
	if err != nil {
		return core.Prediction{}, err
	}

	saved, err := s.store.SavePrediction(ctx, prediction)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("save prediction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPredictionCreated(ctx, saved); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish prediction event",
				"prediction_id", saved.ID,
				"category", saved.Category.String(),
				"error", err)
		}
	}
	return saved, nil
}

func (s *PredictionService) ListPredictions(ctx context.Context, category core.Category, limit int) ([]core.Prediction, error) {
	if category != "" && !category.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCategory, string(category))
	}
	preds, err := s.store.ListPredictions(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return preds, nil
}

// RefreshSummary counts the outcome of a RefreshAll pass.
type RefreshSummary struct {
	Predicted int
	Skipped   int
}

// RefreshAll forecasts every category. Categories without enough data are
// skipped; any other failure is collected and returned after the pass.
func (s *PredictionService) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	var (
		summary RefreshSummary
		errs    []error
	)
	for _, category := range core.Categories() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, err := s.PredictNextMonth(ctx, category)
		switch {
		case err == nil:
			summary.Predicted++
		case IsNotEnoughData(err):
			summary.Skipped++
			s.logger.InfoContext(ctx, "Category skipped, not enough data",
				"category", category.String(),
				"error", err)
		default:
			errs = append(errs, fmt.Errorf("%s: %w", category, err))
		}
	}
	return summary, errors.Join(errs...)
}

// IsNotEnoughData reports whether err means the history could not support a
// forecast, as opposed to an infrastructure failure.
func IsNotEnoughData(err error) bool {
	return errors.Is(err, forecast.ErrInsufficientData) || errors.Is(err, forecast.ErrNoViableModel)
}
