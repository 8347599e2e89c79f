package google

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendcast/internal/core"
)

func TestParseTransactionRows(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Date", "Category", "Amount", "Description"},
		{"1", "2025-01-10T12:00:00Z", "FOOD", "42,10", "Groceries"},
		{},
		{"2", "2025-02-03", "transport", 30.0, "Bus pass"},
		{"3", "2025-02-04", "PETS", "10", "Unknown category"},
		{"4", "2025-02-05", "HEALTH", "5"},
	}

	txs, skipped := parseTransactionRows(values)
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2 (header and unknown category)", skipped)
	}
	if len(txs) != 3 {
		t.Fatalf("parsed %d transactions, want 3", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("42.10")) {
		t.Errorf("comma amount parsed as %s", txs[0].Amount)
	}
	if txs[1].Category != core.Transport || !txs[1].CreatedAt.Equal(time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bare date row parsed as %+v", txs[1])
	}
	if txs[2].Description != "" {
		t.Errorf("missing description column should be empty, got %q", txs[2].Description)
	}
}

func TestPredictionRowRoundTrip(t *testing.T) {
	p := core.Prediction{
		ID:              7,
		Category:        core.Food,
		PredictedAmount: decimal.RequireFromString("131.33"),
		TargetMonth:     time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2025, time.April, 10, 9, 30, 0, 0, time.UTC),
		ModelFit:        0.9992,
		ConfidenceLevel: 0.9992,
		Strategy:        "OLS",
	}

	preds, skipped := parsePredictionRows([][]interface{}{predictionRow(p)})
	if skipped != 0 || len(preds) != 1 {
		t.Fatalf("parsed %d, skipped %d", len(preds), skipped)
	}
	got := preds[0]
	if got.ID != p.ID || got.Strategy != p.Strategy || !got.PredictedAmount.Equal(p.PredictedAmount) {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.TargetMonth.Equal(p.TargetMonth) || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("time round trip mismatch: %+v", got)
	}
}

func TestFilterPredictions(t *testing.T) {
	base := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	preds := []core.Prediction{
		{ID: 1, Category: core.Food, CreatedAt: base},
		{ID: 2, Category: core.Travel, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Category: core.Food, CreatedAt: base.Add(2 * time.Hour)},
	}

	got := filterPredictions(preds, core.Food, 1)
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("filterPredictions() = %+v, want only ID 3", got)
	}
	if all := filterPredictions(preds, "", 0); len(all) != 3 || all[0].ID != 3 {
		t.Errorf("unfiltered = %+v", all)
	}
}

func TestIDHelpers(t *testing.T) {
	values := [][]interface{}{{"ID"}, {"3"}, {}, {"11"}, {"x"}}
	if got := maxID(values); got != 11 {
		t.Errorf("maxID() = %d, want 11", got)
	}
	if got := rowOfID(values, 11); got != 3 {
		t.Errorf("rowOfID(11) = %d, want 3", got)
	}
	if got := rowOfID(values, 99); got != -1 {
		t.Errorf("rowOfID(99) = %d, want -1", got)
	}
}
