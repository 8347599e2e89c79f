package forecast

import (
	"math"
	"time"

	"spendcast/internal/core"
)

// Registered strategy names.
const (
	MovingAverageName       = "MOVING_AVERAGE"
	WeightedMovingAvgName   = "WMA"
	HoltWintersName         = "HOLT_WINTERS"
	LeastSquaresName        = "OLS"
	NaiveDriftName          = "NAIVE_DRIFT"
	SeasonalPersistenceName = "SEASONAL_PERSISTENCE"
)

// Strategy is one independent estimator of next month's total. Implementations
// are stateless: Predict depends only on its arguments and the values fixed at
// construction.
type Strategy interface {
	Name() string
	// Predict returns the forecast for the month after the series, or an
	// error when the strategy abstains. Abstentions are strategy-local.
	Predict(series MonthlySeries, category core.Category) (Result, error)
}

// Result is a single strategy's forecast. PredictedAmount is never negative and
// FitScore lies in [0, 1].
type Result struct {
	PredictedAmount float64
	FitScore        float64
	Strategy        string
}

func newResult(strategy string, predicted, fit float64) Result {
	return Result{
		PredictedAmount: math.Max(0, predicted),
		FitScore:        clamp01(fit),
		Strategy:        strategy,
	}
}

// MinSamples holds the per-strategy minimum series length.
type MinSamples struct {
	MovingAverage int
	Weighted      int
	HoltWinters   int
	LeastSquares  int
	Drift         int
	Seasonal      int
}

// Settings are the operator-tunable constants of the registry.
type Settings struct {
	HoltWintersAlpha    float64
	HoltWintersBeta     float64
	MovingAverageWindow int
	WeightedWindow      int
	MinSamples          MinSamples
}

func DefaultSettings() Settings {
	return Settings{
		HoltWintersAlpha:    0.3,
		HoltWintersBeta:     0.2,
		MovingAverageWindow: 3,
		WeightedWindow:      6,
		MinSamples: MinSamples{
			MovingAverage: 3,
			Weighted:      3,
			HoltWinters:   3,
			LeastSquares:  3,
			Drift:         3,
			Seasonal:      1,
		},
	}
}

// NewRegistry builds the ordered strategy list. The order is the tie-break
// order used by the Ensemble and must not change between calls. clock decides
// which month is "next" for seasonal lookups; nil means time.Now in UTC.
func NewRegistry(s Settings, clock func() time.Time) []Strategy {
	return []Strategy{
		NewMovingAverage(s.MovingAverageWindow, s.MinSamples.MovingAverage),
		NewWeightedMovingAverage(s.WeightedWindow, s.MinSamples.Weighted),
		NewHoltWinters(s.HoltWintersAlpha, s.HoltWintersBeta, s.MinSamples.HoltWinters),
		NewLeastSquares(s.MinSamples.LeastSquares),
		NewNaiveDrift(s.MinSamples.Drift),
		NewSeasonalPersistence(s.MinSamples.Seasonal, clock),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// trailing returns the last size values, or all of them if there are fewer.
func trailing(values []float64, size int) []float64 {
	if size <= 0 || size >= len(values) {
		return values
	}
	return values[len(values)-size:]
}
