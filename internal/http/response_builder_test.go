package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendcast/internal/core"
	"spendcast/internal/forecast"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/transactions/1").
		Body(map[string]int{"id": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("Location") != "/api/v1/transactions/1" {
		t.Error("custom header not set")
	}
	if w.Body.String() != "{\"id\":1}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with %d body bytes", w.Code, w.Body.Len())
	}
}

func TestErrorResponseFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		dev     bool
		status  int
		message string
	}{
		{"insufficient data", &forecast.InsufficientDataError{Strategy: "ENSEMBLE", Required: 1, Actual: 0}, false, http.StatusBadRequest, "model ENSEMBLE requires at least 1 months of data, got 0"},
		{"no viable model", fmt.Errorf("FOOD: %w", forecast.ErrNoViableModel), false, http.StatusInternalServerError, msgNotEnoughData},
		{"not found", core.ErrTransactionNotFound, false, http.StatusNotFound, "transaction not found"},
		{"validation", core.ErrEmptyDescription, false, http.StatusBadRequest, "empty description"},
		{"request error", badField("limit", errors.New("bad")), false, http.StatusBadRequest, "limit: bad"},
		{"internal hidden", errors.New("connection refused"), false, http.StatusInternalServerError, msgUnexpected},
		{"internal in dev", errors.New("connection refused"), true, http.StatusInternalServerError, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorResponseFor(tt.err, "/api/v1/x", tt.dev).Write(w)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.status || body.Error != http.StatusText(tt.status) {
				t.Errorf("status fields = %d %q", body.Status, body.Error)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
			if body.Details["path"] != "/api/v1/x" {
				t.Errorf("details = %v", body.Details)
			}
			if body.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
		})
	}
}

func TestNewPredictionResponse(t *testing.T) {
	p := core.Prediction{
		ID:              7,
		Category:        core.Food,
		PredictedAmount: decimal.RequireFromString("131.3"),
		TargetMonth:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC),
		ModelFit:        0.9,
		ConfidenceLevel: 0.9,
		Strategy:        forecast.LeastSquaresName,
	}

	raw, err := json.Marshal(newPredictionResponse(p))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["targetMonth"] != "2025-05" {
		t.Errorf("targetMonth = %v", m["targetMonth"])
	}
	if m["predictedAmount"] != 131.3 {
		t.Errorf("predictedAmount = %v (%T), want a JSON number", m["predictedAmount"], m["predictedAmount"])
	}
}
