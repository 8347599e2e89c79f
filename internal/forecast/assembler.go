package forecast

import (
	"time"

	"spendcast/internal/core"
)

// Assemble turns the winning result into an unsaved prediction targeting the
// first day of the month after now. The amount is rounded half-up to two
// decimals; the fit score is reported as both model fit and confidence.
func Assemble(result Result, category core.Category, now time.Time) core.Prediction {
	return core.Prediction{
		Category:        category,
		PredictedAmount: core.RoundAmount(result.PredictedAmount),
		TargetMonth:     core.NextMonthStart(now),
		CreatedAt:       now,
		ModelFit:        result.FitScore,
		ConfidenceLevel: result.FitScore,
		Strategy:        result.Strategy,
	}
}
