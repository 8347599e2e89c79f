package forecast

import (
	"errors"
	"fmt"
	"time"

	"spendcast/internal/core"
)

// ErrSeasonalReferenceMissing is returned when the series has no total for the
// month twelve months before the target.
var ErrSeasonalReferenceMissing = errors.New("seasonal reference month missing")

// Confidence tiers by series length.
const (
	seasonalFullYearsFit = 0.85 // two full years or more
	seasonalOneYearFit   = 0.65 // just over a year
)

// SeasonalPersistence repeats the total of the same calendar month one year
// earlier. The target month is the month after the clock's current month, not
// the month after the last point of the series.
type SeasonalPersistence struct {
	minRequired int
	clock       func() time.Time
}

func NewSeasonalPersistence(minRequired int, clock func() time.Time) SeasonalPersistence {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return SeasonalPersistence{
		minRequired: atLeast(minRequired, 1),
		clock:       clock,
	}
}

func (SeasonalPersistence) Name() string { return SeasonalPersistenceName }

func (s SeasonalPersistence) Predict(series MonthlySeries, _ core.Category) (Result, error) {
	if _, err := Validate(series, s.Name(), s.minRequired); err != nil {
		return Result{}, err
	}

	target := core.MonthOf(s.clock().UTC()).AddMonths(1)
	reference := target.AddMonths(-12)

	total, ok := series.Lookup(reference)
	if !ok {
		return Result{}, fmt.Errorf("%s: no total for %s: %w", s.Name(), reference, ErrSeasonalReferenceMissing)
	}

	fit := 0.0
	switch n := len(series); {
	case n >= 24:
		fit = seasonalFullYearsFit
	case n >= 13:
		fit = seasonalOneYearFit
	}
	return newResult(s.Name(), total.InexactFloat64(), fit), nil
}
