package forecast

import (
	"math"

	"spendcast/internal/core"
)

// NaiveDrift extends the last value by the average month-over-month change.
//
// Its stability score measures how closely the actuals follow the straight
// drift line from the first to the last point, relative to their magnitude:
//
//	1 - mean|actual_i - (first + drift·i)| / mean|actual_i|
type NaiveDrift struct {
	minRequired int
}

// NewNaiveDrift needs two points to measure drift.
func NewNaiveDrift(minRequired int) NaiveDrift {
	return NaiveDrift{minRequired: atLeast(minRequired, 2)}
}

func (NaiveDrift) Name() string { return NaiveDriftName }

func (s NaiveDrift) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	values, err := Validate(series, s.Name(), s.minRequired)
	if err != nil {
		return Result{}, err
	}

	n := len(values)
	first, last := values[0], values[n-1]
	drift := (last - first) / float64(n-1)

	return newResult(s.Name(), last+drift, driftStability(values, drift)), nil
}

func driftStability(values []float64, drift float64) float64 {
	var lineDeviation, magnitude float64
	for i, v := range values {
		lineDeviation += math.Abs(v - (values[0] + drift*float64(i)))
		magnitude += math.Abs(v)
	}
	if magnitude == 0 {
		return 0
	}
	return clamp01(1 - lineDeviation/magnitude)
}
