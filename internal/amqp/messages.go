package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"spendcast/internal/core"
)

// Message types carried in the AMQP Type header.
const (
	TypeForecastRequest   = "forecast.request"
	TypePredictionCreated = "prediction.created"
)

// ForecastRequestMessage asks a worker to forecast one category. An empty
// category means every category.
type ForecastRequestMessage struct {
	MessageID   string    `json:"message_id"`
	Category    string    `json:"category,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewForecastRequestMessage(category core.Category) *ForecastRequestMessage {
	return &ForecastRequestMessage{
		MessageID:   uuid.NewString(),
		Category:    category.String(),
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ForecastRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ForecastRequestMessageFromJSON(data []byte) (*ForecastRequestMessage, error) {
	var msg ForecastRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PredictionCreatedMessage announces a persisted prediction. Amounts travel as
// decimal strings.
type PredictionCreatedMessage struct {
	MessageID       string    `json:"message_id"`
	PredictionID    int64     `json:"prediction_id"`
	Category        string    `json:"category"`
	TargetMonth     string    `json:"target_month"`
	PredictedAmount string    `json:"predicted_amount"`
	ModelFit        float64   `json:"model_fit"`
	Strategy        string    `json:"strategy"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewPredictionCreatedMessage(p core.Prediction) *PredictionCreatedMessage {
	return &PredictionCreatedMessage{
		MessageID:       uuid.NewString(),
		PredictionID:    p.ID,
		Category:        p.Category.String(),
		TargetMonth:     core.MonthOf(p.TargetMonth).String(),
		PredictedAmount: p.PredictedAmount.StringFixed(2),
		ModelFit:        p.ModelFit,
		Strategy:        p.Strategy,
		CreatedAt:       p.CreatedAt,
	}
}

func (m *PredictionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PredictionCreatedMessageFromJSON(data []byte) (*PredictionCreatedMessage, error) {
	var msg PredictionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
