package forecast

import (
	"math"

	"spendcast/internal/core"
)

// HoltWinters is double exponential smoothing: a level and a trend updated
// once per month, seeded from the first two points. The fit score compares the
// one-step-ahead errors of that pass to the spread of the series (R²-style).
type HoltWinters struct {
	alpha       float64
	beta        float64
	minRequired int
}

// NewHoltWinters needs at least two points to seed the trend, so minRequired is
// raised to 2 when configured lower.
func NewHoltWinters(alpha, beta float64, minRequired int) HoltWinters {
	return HoltWinters{
		alpha:       alpha,
		beta:        beta,
		minRequired: atLeast(minRequired, 2),
	}
}

func (HoltWinters) Name() string { return HoltWintersName }

func (s HoltWinters) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	values, err := Validate(series, s.Name(), s.minRequired)
	if err != nil {
		return Result{}, err
	}

	level := values[0]
	trend := values[1] - values[0]
	meanY := mean(values)

	var sse, sst float64
	for _, actual := range values[1:] {
		forecast := level + trend

		lastLevel := level
		level = s.alpha*actual + (1-s.alpha)*(level+trend)
		trend = s.beta*(level-lastLevel) + (1-s.beta)*trend

		sse += (actual - forecast) * (actual - forecast)
		sst += (actual - meanY) * (actual - meanY)
	}

	fit := 0.0
	if sst != 0 {
		fit = math.Max(0, 1-sse/sst)
	}
	return newResult(s.Name(), level+trend, fit), nil
}
