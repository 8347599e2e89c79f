package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spendcast/internal/core"
	"spendcast/internal/forecast"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes only
// the status line.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// ErrorResponse creates an error response with the standard body.
func ErrorResponse(statusCode int, message string, details map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{
			Timestamp: time.Now().UTC(),
			Status:    statusCode,
			Error:     http.StatusText(statusCode),
			Message:   message,
			Details:   details,
		})
}

const (
	msgNotEnoughData = "Not enough data to generate a prediction"
	msgUnexpected    = "An unexpected error occurred"
)

// errorResponseFor maps a service or request error onto a response. Messages
// of unclassified errors are only exposed when dev is true.
func errorResponseFor(err error, path string, dev bool) *JSONResponseBuilder {
	details := map[string]string{"path": path}

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Field != "" {
		details["field"] = reqErr.Field
	}

	switch {
	case errors.Is(err, forecast.ErrNoViableModel):
		return ErrorResponse(http.StatusInternalServerError, msgNotEnoughData, details)
	case errors.Is(err, forecast.ErrInsufficientData):
		return ErrorResponse(http.StatusBadRequest, err.Error(), details)
	case errors.Is(err, core.ErrTransactionNotFound):
		return ErrorResponse(http.StatusNotFound, err.Error(), details)
	case reqErr != nil,
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrDescriptionTooLong):
		return ErrorResponse(http.StatusBadRequest, err.Error(), details)
	}

	message := msgUnexpected
	if dev {
		message = err.Error()
	}
	return ErrorResponse(http.StatusInternalServerError, message, details)
}

// TransactionResponse is the JSON view of a transaction.
type TransactionResponse struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func newTransactionResponse(t core.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Amount:      json.Number(t.Amount.StringFixed(2)),
		Category:    t.Category.String(),
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

// PredictionResponse is the JSON view of a prediction; targetMonth is
// rendered as yyyy-MM.
type PredictionResponse struct {
	ID              int64       `json:"id"`
	Category        string      `json:"category"`
	PredictedAmount json.Number `json:"predictedAmount"`
	TargetMonth     string      `json:"targetMonth"`
	CreatedAt       time.Time   `json:"createdAt"`
	ModelFit        float64     `json:"modelFit"`
	ConfidenceLevel float64     `json:"confidenceLevel"`
	Strategy        string      `json:"strategy"`
}

func newPredictionResponse(p core.Prediction) PredictionResponse {
	return PredictionResponse{
		ID:              p.ID,
		Category:        p.Category.String(),
		PredictedAmount: json.Number(p.PredictedAmount.StringFixed(2)),
		TargetMonth:     p.TargetMonth.Format("2006-01"),
		CreatedAt:       p.CreatedAt.UTC(),
		ModelFit:        p.ModelFit,
		ConfidenceLevel: p.ConfidenceLevel,
		Strategy:        p.Strategy,
	}
}
