// Package http exposes the forecaster as a JSON API.
//
// This file decodes and validates request bodies and query parameters.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendcast/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// RequestError is a client mistake in the request itself. Field is empty when
// the problem is not tied to one field.
type RequestError struct {
	Field string
	Err   error
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func badField(field string, err error) error {
	return &RequestError{Field: field, Err: err}
}

// CreateTransactionRequest is the body of POST /api/v1/transactions. Amount
// may be sent as a JSON number or a string.
type CreateTransactionRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
}

// PredictionRequest is the body of POST /api/v1/predictions/next-month.
type PredictionRequest struct {
	Category string `json:"category"`
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badField("", errors.New("request body must not be empty"))
		case errors.As(err, &maxErr):
			return badField("", fmt.Errorf("request body must not exceed %d bytes", maxErr.Limit))
		default:
			return badField("", fmt.Errorf("malformed JSON: %w", err))
		}
	}
	if dec.More() {
		return badField("", errors.New("request body must contain a single JSON object"))
	}
	return nil
}

// Transaction converts the request into a domain value. CreatedAt stays zero
// when omitted so the service can stamp it.
func (req CreateTransactionRequest) Transaction() (core.Transaction, error) {
	category, err := parseCategoryField(req.Category)
	if err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(rawAmount(req.Amount))
	if err != nil {
		return core.Transaction{}, badField("amount", err)
	}

	t := core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    category,
	}
	if req.CreatedAt != nil {
		t.CreatedAt = req.CreatedAt.UTC()
	}
	return t, nil
}

func rawAmount(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

// ListPredictionsParams holds the query of GET /api/v1/predictions. An empty
// Category means every category and Limit 0 means no limit.
type ListPredictionsParams struct {
	Category core.Category
	Limit    int
}

func parseListPredictionsParams(query url.Values) (ListPredictionsParams, error) {
	var params ListPredictionsParams

	if v := strings.TrimSpace(query.Get("category")); v != "" {
		category, err := core.ParseCategory(v)
		if err != nil {
			return params, badField("category", err)
		}
		params.Category = category
	}

	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return params, badField("limit", fmt.Errorf("must be a non-negative integer, got %q", v))
		}
		params.Limit = limit
	}
	return params, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, badField("id", fmt.Errorf("must be a positive integer, got %q", s))
	}
	return id, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func parseCategoryField(s string) (core.Category, error) {
	category, err := core.ParseCategory(s)
	if err != nil {
		return "", badField("category", err)
	}
	return category, nil
}
