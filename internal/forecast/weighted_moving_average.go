package forecast

import (
	"math"

	"spendcast/internal/core"
)

// WeightedMovingAverage weighs the trailing window linearly, 1 for the oldest
// month up to n for the most recent.
type WeightedMovingAverage struct {
	window      int
	minRequired int
}

func NewWeightedMovingAverage(window, minRequired int) WeightedMovingAverage {
	return WeightedMovingAverage{
		window:      atLeast(window, 1),
		minRequired: atLeast(minRequired, 1),
	}
}

func (WeightedMovingAverage) Name() string { return WeightedMovingAvgName }

func (s WeightedMovingAverage) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	values, err := Validate(series, s.Name(), s.minRequired)
	if err != nil {
		return Result{}, err
	}

	window := trailing(values, s.window)
	var weightedSum, weightTotal float64
	for i, v := range window {
		weight := float64(i + 1)
		weightedSum += v * weight
		weightTotal += weight
	}
	prediction := weightedSum / weightTotal

	return newResult(s.Name(), prediction, weightedFit(window, prediction, weightTotal)), nil
}

// weightedFit is 1 - weightedStdDev/prediction, capped to [0, 1].
func weightedFit(window []float64, prediction, weightTotal float64) float64 {
	if prediction <= 0 {
		return 0
	}
	var weightedSquares float64
	for i, v := range window {
		weightedSquares += float64(i+1) * (v - prediction) * (v - prediction)
	}
	stdDev := math.Sqrt(weightedSquares / weightTotal)
	return clamp01(1 - stdDev/prediction)
}
