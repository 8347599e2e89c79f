package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"spendcast/internal/core"
)

// Sheet layouts, one record per row, header row optional:
//
//	Transactions: ID | Date | Category | Amount | Description
//	Predictions:  ID | Created | Category | Target month | Amount | Fit | Confidence | Strategy
const (
	sheetTimeLayout = time.RFC3339
	sheetDateLayout = "2006-01-02"
)

func transactionRow(t core.Transaction) []interface{} {
	return []interface{}{
		t.ID,
		t.CreatedAt.UTC().Format(sheetTimeLayout),
		t.Category.String(),
		t.Amount.StringFixed(2),
		t.Description,
	}
}

func predictionRow(p core.Prediction) []interface{} {
	return []interface{}{
		p.ID,
		p.CreatedAt.UTC().Format(sheetTimeLayout),
		p.Category.String(),
		core.MonthOf(p.TargetMonth).String(),
		p.PredictedAmount.StringFixed(2),
		p.ModelFit,
		p.ConfidenceLevel,
		p.Strategy,
	}
}

// parseTransactionRows converts sheet values into transactions. Rows that do
// not parse (headers, blanks, hand-edited garbage) are counted and skipped.
func parseTransactionRows(values [][]interface{}) ([]core.Transaction, int) {
	var (
		out     []core.Transaction
		skipped int
	)
	for _, row := range values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		t, err := parseTransaction(cols)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseTransaction(cols []string) (core.Transaction, error) {
	if len(cols) < 4 {
		return core.Transaction{}, fmt.Errorf("expected at least 4 columns, got %d", len(cols))
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse id: %w", err)
	}
	createdAt, err := parseSheetTime(cols[1])
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := core.ParseCategory(cols[2])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(cols[3])
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		Description: safeGet(cols, 4),
		Amount:      amount,
		Category:    category,
		CreatedAt:   createdAt,
	}, nil
}

func parsePredictionRows(values [][]interface{}) ([]core.Prediction, int) {
	var (
		out     []core.Prediction
		skipped int
	)
	for _, row := range values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		p, err := parsePrediction(cols)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

func parsePrediction(cols []string) (core.Prediction, error) {
	if len(cols) < 8 {
		return core.Prediction{}, fmt.Errorf("expected 8 columns, got %d", len(cols))
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("parse id: %w", err)
	}
	createdAt, err := parseSheetTime(cols[1])
	if err != nil {
		return core.Prediction{}, err
	}
	category, err := core.ParseCategory(cols[2])
	if err != nil {
		return core.Prediction{}, err
	}
	target, err := core.ParseMonth(cols[3])
	if err != nil {
		return core.Prediction{}, err
	}
	amount, err := core.ParseAmount(cols[4])
	if err != nil {
		return core.Prediction{}, err
	}
	fit, err := strconv.ParseFloat(strings.ReplaceAll(cols[5], ",", "."), 64)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("parse model fit: %w", err)
	}
	confidence, err := strconv.ParseFloat(strings.ReplaceAll(cols[6], ",", "."), 64)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("parse confidence: %w", err)
	}
	return core.Prediction{
		ID:              id,
		Category:        category,
		PredictedAmount: amount,
		TargetMonth:     target.FirstDay(time.UTC),
		CreatedAt:       createdAt,
		ModelFit:        fit,
		ConfidenceLevel: confidence,
		Strategy:        cols[7],
	}, nil
}

// parseSheetTime accepts a full timestamp or a bare date typed by hand.
func parseSheetTime(s string) (time.Time, error) {
	if t, err := time.Parse(sheetTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(sheetDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func sortTransactionsNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}

// filterPredictions keeps rows of category (all when empty), newest first, up to
// limit when limit > 0.
func filterPredictions(preds []core.Prediction, category core.Category, limit int) []core.Prediction {
	sort.SliceStable(preds, func(i, j int) bool {
		if preds[i].CreatedAt.Equal(preds[j].CreatedAt) {
			return preds[i].ID > preds[j].ID
		}
		return preds[i].CreatedAt.After(preds[j].CreatedAt)
	})
	var out []core.Prediction
	for _, p := range preds {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
