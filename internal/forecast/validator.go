package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData matches every *InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnorderedSeries reports a series that breaks the month-ascending,
	// unique-key invariant.
	ErrUnorderedSeries = errors.New("monthly series is not strictly month-ascending")
)

// InsufficientDataError is returned when a strategy has fewer monthly points
// than it needs.
type InsufficientDataError struct {
	Strategy string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("model %s requires at least %d months of data, got %d", e.Strategy, e.Required, e.Actual)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Validate confirms the series holds at least minRequired points and returns
// the ordered totals. Every strategy calls it before any arithmetic that
// divides by the series length or indexes into it.
func Validate(series MonthlySeries, strategy string, minRequired int) ([]float64, error) {
	if len(series) < minRequired {
		return nil, &InsufficientDataError{
			Strategy: strategy,
			Required: minRequired,
			Actual:   len(series),
		}
	}
	if !series.ordered() {
		return nil, fmt.Errorf("%s: %w", strategy, ErrUnorderedSeries)
	}
	return series.Values(), nil
}
