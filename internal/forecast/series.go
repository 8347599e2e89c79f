// Package forecast implements the next-month spending forecast ensemble.
//
// Raw observations are reduced to a month-ascending series by Aggregate; each
// Strategy validates its own minimum sample size before touching the numbers,
// and the Ensemble runs every registered strategy, drops the ones that abstain
// and keeps the best fit score, breaking ties by registry order.
package forecast

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendcast/internal/core"
)

// MonthlyPoint is the total spent in one calendar month.
type MonthlyPoint struct {
	Month core.Month
	Total decimal.Decimal
}

// MonthlySeries is ordered by month ascending with unique keys. Months with no
// observations are absent rather than zero-filled, so strategies index it by
// position, not by calendar distance.
type MonthlySeries []MonthlyPoint

// Aggregate groups observations by the UTC calendar month of their timestamp,
// sums the amounts and sorts the result by month. Empty input yields an empty
// series; the minimum-size policy belongs to the validator.
func Aggregate(observations []core.Observation) MonthlySeries {
	if len(observations) == 0 {
		return MonthlySeries{}
	}

	totals := make(map[core.Month]decimal.Decimal)
	for _, o := range observations {
		m := core.MonthOf(o.Timestamp.UTC())
		totals[m] = totals[m].Add(o.Amount)
	}

	series := make(MonthlySeries, 0, len(totals))
	for m, total := range totals {
		series = append(series, MonthlyPoint{Month: m, Total: total})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month.Before(series[j].Month)
	})
	return series
}

// Lookup returns the total recorded for m, if any.
func (s MonthlySeries) Lookup(m core.Month) (decimal.Decimal, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Month.Before(m) })
	if i < len(s) && s[i].Month == m {
		return s[i].Total, true
	}
	return decimal.Zero, false
}

// Values returns the totals in order, discarding the month keys.
func (s MonthlySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Total.InexactFloat64()
	}
	return out
}

func (s MonthlySeries) ordered() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Month.Before(s[i].Month) {
			return false
		}
	}
	return true
}
