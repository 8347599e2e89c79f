package forecast

import (
	"math"

	"spendcast/internal/core"
)

// MovingAverage forecasts the mean of the trailing window. Its fit score is one
// minus the coefficient of variation over that window: stable spending scores
// high, erratic spending scores low.
type MovingAverage struct {
	window      int
	minRequired int
}

func NewMovingAverage(window, minRequired int) MovingAverage {
	return MovingAverage{
		window:      atLeast(window, 1),
		minRequired: atLeast(minRequired, 1),
	}
}

func (MovingAverage) Name() string { return MovingAverageName }

func (s MovingAverage) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	values, err := Validate(series, s.Name(), s.minRequired)
	if err != nil {
		return Result{}, err
	}

	window := trailing(values, s.window)
	avg := mean(window)

	var sumSquares float64
	for _, v := range window {
		sumSquares += (v - avg) * (v - avg)
	}
	stdDev := math.Sqrt(sumSquares / float64(len(window)))

	fit := 0.0
	if avg != 0 {
		fit = math.Max(0, 1-stdDev/avg)
	}
	return newResult(s.Name(), avg, fit), nil
}
