package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"spendcast/internal/core"
)

// ErrNoViableModel is returned when every registered strategy abstains.
var ErrNoViableModel = errors.New("no forecasting model could produce a prediction")

// Ensemble runs a fixed strategy registry and keeps the best-fitting result.
// The registry is read-only after construction, so one Ensemble may be shared
// by concurrent callers.
type Ensemble struct {
	strategies []Strategy
	logger     *slog.Logger
	parallel   bool
	workers    int
	clock      func() time.Time
}

type EnsembleOption func(*Ensemble)

func WithLogger(logger *slog.Logger) EnsembleOption {
	return func(e *Ensemble) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithParallel evaluates strategies on at most workers goroutines. The winner
// is still chosen in registry order.
func WithParallel(workers int) EnsembleOption {
	return func(e *Ensemble) {
		e.parallel = true
		e.workers = workers
	}
}

// WithClock sets the clock used to stamp assembled predictions. It should be
// the same clock handed to NewRegistry.
func WithClock(clock func() time.Time) EnsembleOption {
	return func(e *Ensemble) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func NewEnsemble(strategies []Strategy, opts ...EnsembleOption) *Ensemble {
	e := &Ensemble{
		strategies: strategies,
		logger:     slog.Default(),
		clock:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Names lists the registered strategies in tie-break order.
func (e *Ensemble) Names() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// outcome is one registry slot. Slots are written by index, so completion order
// never leaks into selection.
type outcome struct {
	result Result
	err    error
}

// Best evaluates every strategy and returns the surviving result with the
// highest fit score. On equal scores the earlier-registered strategy wins.
func (e *Ensemble) Best(series MonthlySeries, category core.Category) (Result, error) {
	outcomes := e.evaluate(series, category)

	var (
		best  Result
		found bool
	)
	for i, o := range outcomes {
		name := e.strategies[i].Name()
		if o.err != nil {
			e.logFailure(name, category, o.err)
			continue
		}
		e.logger.Debug("strategy evaluated",
			"strategy", name,
			"category", category.String(),
			"predicted_amount", o.result.PredictedAmount,
			"fit_score", o.result.FitScore,
		)
		if !found || o.result.FitScore > best.FitScore {
			best = o.result
			found = true
		}
	}

	if !found {
		return Result{}, fmt.Errorf("%s: %w", category, ErrNoViableModel)
	}
	return best, nil
}

// SelectBest runs the ensemble and assembles the winning result into a
// prediction for the month after the clock's current month.
func (e *Ensemble) SelectBest(series MonthlySeries, category core.Category) (core.Prediction, error) {
	best, err := e.Best(series, category)
	if err != nil {
		return core.Prediction{}, err
	}

	e.logger.Info("forecast selected",
		"strategy", best.Strategy,
		"category", category.String(),
		"months", len(series),
		"model_fit", best.FitScore,
	)
	return Assemble(best, category, e.clock()), nil
}

func (e *Ensemble) evaluate(series MonthlySeries, category core.Category) []outcome {
	outcomes := make([]outcome, len(e.strategies))

	if !e.parallel {
		for i, s := range e.strategies {
			outcomes[i] = run(s, series, category)
		}
		return outcomes
	}

	var g errgroup.Group
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i, s := range e.strategies {
		g.Go(func() error {
			outcomes[i] = run(s, series, category)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func run(s Strategy, series MonthlySeries, category core.Category) outcome {
	result, err := s.Predict(series, category)
	if err != nil {
		return outcome{err: err}
	}
	if !finite(result.PredictedAmount) || !finite(result.FitScore) {
		return outcome{err: fmt.Errorf("%s: non-finite result (amount=%v, fit=%v)", s.Name(), result.PredictedAmount, result.FitScore)}
	}
	return outcome{result: result}
}

func (e *Ensemble) logFailure(name string, category core.Category, err error) {
	if errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrSeasonalReferenceMissing) {
		e.logger.Warn("strategy abstained", "strategy", name, "category", category.String(), "error", err)
		return
	}
	e.logger.Error("strategy failed", "strategy", name, "category", category.String(), "error", err)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
