package forecast

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendcast/internal/core"
)

var fixedNow = time.Date(2025, time.April, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seriesOf builds consecutive months starting at start.
func seriesOf(start core.Month, values ...float64) MonthlySeries {
	s := make(MonthlySeries, len(values))
	for i, v := range values {
		s[i] = MonthlyPoint{Month: start.AddMonths(i), Total: decimal.NewFromFloat(v)}
	}
	return s
}

func TestAggregate(t *testing.T) {
	obs := []core.Observation{
		{Timestamp: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("20.50")},
		{Timestamp: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("10")},
		{Timestamp: time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("4.50")},
		// 2025-02-01 00:30 at +02:00 is still January in UTC.
		{Timestamp: time.Date(2025, time.February, 1, 0, 30, 0, 0, time.FixedZone("EET", 2*3600)), Amount: decimal.RequireFromString("5")},
	}

	series := Aggregate(obs)

	require.Len(t, series, 2)
	assert.Equal(t, core.NewMonth(2025, time.January), series[0].Month)
	assert.True(t, series[0].Total.Equal(decimal.RequireFromString("15")))
	assert.Equal(t, core.NewMonth(2025, time.March), series[1].Month)
	assert.True(t, series[1].Total.Equal(decimal.RequireFromString("25")))

	_, ok := series.Lookup(core.NewMonth(2025, time.February))
	assert.False(t, ok, "gaps are not zero-filled")
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestValidate(t *testing.T) {
	jan := core.NewMonth(2025, time.January)

	t.Run("insufficient data", func(t *testing.T) {
		_, err := Validate(seriesOf(jan, 1, 2), LeastSquaresName, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)

		var ide *InsufficientDataError
		require.ErrorAs(t, err, &ide)
		assert.Equal(t, 3, ide.Required)
		assert.Equal(t, 2, ide.Actual)
		assert.Equal(t, "model OLS requires at least 3 months of data, got 2", err.Error())
	})

	t.Run("unordered series", func(t *testing.T) {
		s := MonthlySeries{seriesOf(jan, 1, 2)[1], seriesOf(jan, 1, 2)[0]}
		_, err := Validate(s, MovingAverageName, 1)
		assert.ErrorIs(t, err, ErrUnorderedSeries)
	})

	t.Run("returns values in order", func(t *testing.T) {
		values, err := Validate(seriesOf(jan, 1, 2, 3), MovingAverageName, 3)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, values)
	})
}

func TestStrategies_KnownSeries(t *testing.T) {
	jan := core.NewMonth(2025, time.January)
	settings := DefaultSettings()

	tests := []struct {
		name       string
		strategy   Strategy
		values     []float64
		wantAmount float64
		wantFit    float64
	}{
		{"moving average constant", NewMovingAverage(3, 3), []float64{100, 100, 100}, 100, 1},
		{"moving average uses trailing window", NewMovingAverage(2, 2), []float64{500, 100, 100}, 100, 1},
		{"wma linear weights", NewWeightedMovingAverage(6, 3), []float64{10, 20, 30}, 140.0 / 6.0, 0.6805},
		{"holt winters linear", NewHoltWinters(settings.HoltWintersAlpha, settings.HoltWintersBeta, 3), []float64{10, 20, 30}, 40, 1},
		{"ols linear", NewLeastSquares(3), []float64{10, 20, 30}, 40, 1},
		{"ols flat series", NewLeastSquares(3), []float64{50, 50, 50}, 50, 0},
		{"drift linear", NewNaiveDrift(3), []float64{10, 20, 30}, 40, 1},
		{"drift flat series", NewNaiveDrift(3), []float64{50, 50, 50}, 50, 1},
		{"drift scored against magnitude", NewNaiveDrift(3), []float64{100, 120, 100}, 100, 0.9375},
		{"drift all zero", NewNaiveDrift(3), []float64{0, 0, 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.Predict(seriesOf(jan, tt.values...), core.Food)
			require.NoError(t, err)
			assert.Equal(t, tt.strategy.Name(), got.Strategy)
			assert.InDelta(t, tt.wantAmount, got.PredictedAmount, 1e-9)
			assert.InDelta(t, tt.wantFit, got.FitScore, 1e-3)
		})
	}
}

func TestStrategies_ResultBounds(t *testing.T) {
	jan := core.NewMonth(2023, time.January)
	clock := func() time.Time { return time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC) }
	rng := rand.New(rand.NewSource(42))

	for _, s := range NewRegistry(DefaultSettings(), clock) {
		for trial := 0; trial < 50; trial++ {
			values := make([]float64, 24)
			for i := range values {
				values[i] = rng.Float64() * 1000
			}
			// Steep declines push extrapolating strategies below zero.
			if trial%2 == 0 {
				for i := range values {
					values[i] = float64(2400 - i*100)
				}
			}

			got, err := s.Predict(seriesOf(jan, values...), core.Other)
			require.NoError(t, err, s.Name())
			assert.GreaterOrEqual(t, got.PredictedAmount, 0.0, s.Name())
			assert.GreaterOrEqual(t, got.FitScore, 0.0, s.Name())
			assert.LessOrEqual(t, got.FitScore, 1.0, s.Name())
		}
	}
}

func TestStrategies_InsufficientData(t *testing.T) {
	jan := core.NewMonth(2025, time.January)
	two := seriesOf(jan, 10, 20)

	tests := []struct {
		name         string
		series       MonthlySeries
		wantRequired int
		wantActual   int
	}{
		{MovingAverageName, two, 3, 2},
		{WeightedMovingAvgName, two, 3, 2},
		{HoltWintersName, two, 3, 2},
		{LeastSquaresName, two, 3, 2},
		{NaiveDriftName, two, 3, 2},
		{SeasonalPersistenceName, nil, 1, 0},
	}

	registry := NewRegistry(DefaultSettings(), fixedClock)
	require.Len(t, registry, len(tests))

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := registry[i]
			require.Equal(t, tt.name, s.Name())

			_, err := s.Predict(tt.series, core.Food)
			require.ErrorIs(t, err, ErrInsufficientData)

			var ide *InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, tt.name, ide.Strategy)
			assert.Equal(t, tt.wantRequired, ide.Required)
			assert.Equal(t, tt.wantActual, ide.Actual)
		})
	}
}

func TestMinimumFloors(t *testing.T) {
	jan := core.NewMonth(2025, time.January)
	one := seriesOf(jan, 10)

	for _, s := range []Strategy{NewHoltWinters(0.3, 0.2, 0), NewLeastSquares(1), NewNaiveDrift(-4)} {
		_, err := s.Predict(one, core.Food)
		var ide *InsufficientDataError
		require.ErrorAs(t, err, &ide, s.Name())
		assert.Equal(t, 2, ide.Required, s.Name())
	}

	got, err := NewMovingAverage(0, 0).Predict(one, core.Food)
	require.NoError(t, err)
	assert.InDelta(t, 10, got.PredictedAmount, 1e-9)
}

func TestSeasonalPersistence(t *testing.T) {
	// fixedNow is April 2025, so the target is May 2025 and the reference May 2024.
	t.Run("reference present, one year of history", func(t *testing.T) {
		values := make([]float64, 13)
		for i := range values {
			values[i] = float64(100 + i)
		}
		series := seriesOf(core.NewMonth(2024, time.April), values...)

		got, err := NewSeasonalPersistence(1, fixedClock).Predict(series, core.Travel)
		require.NoError(t, err)
		assert.InDelta(t, 101, got.PredictedAmount, 1e-9)
		assert.InDelta(t, 0.65, got.FitScore, 1e-9)
	})

	t.Run("two years of history", func(t *testing.T) {
		values := make([]float64, 24)
		for i := range values {
			values[i] = float64(i)
		}
		series := seriesOf(core.NewMonth(2023, time.May), values...)

		got, err := NewSeasonalPersistence(1, fixedClock).Predict(series, core.Travel)
		require.NoError(t, err)
		assert.InDelta(t, 12, got.PredictedAmount, 1e-9)
		assert.InDelta(t, 0.85, got.FitScore, 1e-9)
	})

	t.Run("short history scores zero", func(t *testing.T) {
		series := seriesOf(core.NewMonth(2024, time.May), 75)

		got, err := NewSeasonalPersistence(1, fixedClock).Predict(series, core.Travel)
		require.NoError(t, err)
		assert.InDelta(t, 75, got.PredictedAmount, 1e-9)
		assert.Zero(t, got.FitScore)
	})

	t.Run("reference missing", func(t *testing.T) {
		series := seriesOf(core.NewMonth(2025, time.January), 10, 20, 30)

		_, err := NewSeasonalPersistence(1, fixedClock).Predict(series, core.Travel)
		assert.ErrorIs(t, err, ErrSeasonalReferenceMissing)
	})
}

type stubStrategy struct {
	name  string
	fit   float64
	err   error
	delay time.Duration
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Predict(MonthlySeries, core.Category) (Result, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return Result{}, s.err
	}
	return newResult(s.name, 100*s.fit, s.fit), nil
}

func TestEnsemble_TieBreakByRegistryOrder(t *testing.T) {
	strategies := []Strategy{
		stubStrategy{name: "LOW", fit: 0.2},
		stubStrategy{name: "FIRST", fit: 0.9},
		stubStrategy{name: "BROKEN", err: errors.New("boom")},
		stubStrategy{name: "SECOND", fit: 0.9},
	}

	got, err := NewEnsemble(strategies, WithLogger(quietLogger())).Best(nil, core.Food)
	require.NoError(t, err)
	assert.Equal(t, "FIRST", got.Strategy)
}

func TestEnsemble_NonFiniteResultIsExcluded(t *testing.T) {
	nan := nanStrategy{}
	strategies := []Strategy{nan, stubStrategy{name: "OK", fit: 0.1}}

	got, err := NewEnsemble(strategies, WithLogger(quietLogger())).Best(nil, core.Food)
	require.NoError(t, err)
	assert.Equal(t, "OK", got.Strategy)
}

type nanStrategy struct{}

func (nanStrategy) Name() string { return "NAN" }

func (nanStrategy) Predict(MonthlySeries, core.Category) (Result, error) {
	var zero float64
	return Result{PredictedAmount: zero / zero, FitScore: 0.99, Strategy: "NAN"}, nil
}

func TestEnsemble_AllStrategiesFail(t *testing.T) {
	series := seriesOf(core.NewMonth(2025, time.January), 10, 20)
	ensemble := NewEnsemble(NewRegistry(DefaultSettings(), fixedClock),
		WithLogger(quietLogger()), WithClock(fixedClock))

	_, err := ensemble.SelectBest(series, core.Food)
	assert.ErrorIs(t, err, ErrNoViableModel)
	assert.NotErrorIs(t, err, ErrInsufficientData)
}

func TestEnsemble_ConcurrentCompletionOrderDoesNotMatter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 25; trial++ {
		strategies := make([]Strategy, 6)
		for i := range strategies {
			fit := 0.5
			if i == 1 || i == 3 || i == 5 {
				fit = 0.8
			}
			strategies[i] = stubStrategy{
				name:  fmt.Sprintf("S%d", i),
				fit:   fit,
				delay: time.Duration(rng.Intn(3000)) * time.Microsecond,
			}
		}

		got, err := NewEnsemble(strategies, WithLogger(quietLogger()), WithParallel(6)).Best(nil, core.Food)
		require.NoError(t, err)
		assert.Equal(t, "S1", got.Strategy, "trial %d", trial)
	}
}

func TestEnsemble_SequentialAndParallelAgree(t *testing.T) {
	series := seriesOf(core.NewMonth(2023, time.March), 120, 80, 95, 130, 110, 90, 140, 100, 105, 115, 99, 125, 118, 102)
	registry := NewRegistry(DefaultSettings(), fixedClock)

	sequential, err := NewEnsemble(registry, WithLogger(quietLogger())).Best(series, core.Shopping)
	require.NoError(t, err)
	parallel, err := NewEnsemble(registry, WithLogger(quietLogger()), WithParallel(2)).Best(series, core.Shopping)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestSelectBest_EndToEnd(t *testing.T) {
	obs := []core.Observation{
		{Timestamp: time.Date(2025, time.January, 12, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("60")},
		{Timestamp: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("40")},
		{Timestamp: time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("110")},
		{Timestamp: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("121")},
	}
	ensemble := NewEnsemble(NewRegistry(DefaultSettings(), fixedClock),
		WithLogger(quietLogger()), WithClock(fixedClock), WithParallel(6))

	got, err := ensemble.SelectBest(Aggregate(obs), core.Food)
	require.NoError(t, err)

	assert.Equal(t, LeastSquaresName, got.Strategy)
	assert.Equal(t, core.Food, got.Category)
	assert.True(t, got.PredictedAmount.Equal(decimal.RequireFromString("131.33")), got.PredictedAmount.String())
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), got.TargetMonth)
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Greater(t, got.ModelFit, 0.99)
	assert.Equal(t, got.ModelFit, got.ConfidenceLevel)
}

func TestEnsemble_DriftWinsOnReturningSeries(t *testing.T) {
	series := seriesOf(core.NewMonth(2025, time.January), 100, 120, 100)
	ensemble := NewEnsemble(NewRegistry(DefaultSettings(), fixedClock), WithLogger(quietLogger()))

	got, err := ensemble.Best(series, core.Food)
	require.NoError(t, err)
	assert.Equal(t, NaiveDriftName, got.Strategy)
	assert.InDelta(t, 100, got.PredictedAmount, 1e-9)
	assert.InDelta(t, 0.9375, got.FitScore, 1e-9)
}

func TestEnsemble_Names(t *testing.T) {
	names := NewEnsemble(NewRegistry(DefaultSettings(), nil)).Names()
	assert.Equal(t, []string{
		MovingAverageName, WeightedMovingAvgName, HoltWintersName,
		LeastSquaresName, NaiveDriftName, SeasonalPersistenceName,
	}, names)
}
