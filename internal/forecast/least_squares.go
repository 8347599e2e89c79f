package forecast

import (
	"math"

	"spendcast/internal/core"
)

// LeastSquares fits value = β0 + β1·i over the month index i = 0..n-1 and
// extrapolates to i = n. The fit score is the line's R².
type LeastSquares struct {
	minRequired int
}

func NewLeastSquares(minRequired int) LeastSquares {
	return LeastSquares{minRequired: atLeast(minRequired, 2)}
}

func (LeastSquares) Name() string { return LeastSquaresName }

func (s LeastSquares) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	values, err := Validate(series, s.Name(), s.minRequired)
	if err != nil {
		return Result{}, err
	}

	intercept, slope := fitLine(values)
	n := float64(len(values))
	return newResult(s.Name(), intercept+slope*n, rSquared(values, intercept, slope)), nil
}

// fitLine solves the normal equations. The slope is 0 when the denominator
// vanishes.
func fitLine(values []float64) (intercept, slope float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	if denom := n*sumX2 - sumX*sumX; denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}

// rSquared is 0 for a flat series.
func rSquared(values []float64, intercept, slope float64) float64 {
	meanY := mean(values)
	var ssRes, ssTot float64
	for i, actual := range values {
		predicted := intercept + slope*float64(i)
		ssRes += (actual - predicted) * (actual - predicted)
		ssTot += (actual - meanY) * (actual - meanY)
	}
	if ssTot == 0 {
		return 0
	}
	return math.Max(0, 1-ssRes/ssTot)
}
