package storage

type Transaction struct {
	ID          int64
	Description string
	Amount      string
	Category    string
	CreatedAt   string
}

type Prediction struct {
	ID              int64
	Category        string
	PredictedAmount string
	TargetMonth     string
	ModelFit        float64
	ConfidenceLevel float64
	Strategy        string
	CreatedAt       string
}

type Observation struct {
	CreatedAt string
	Amount    string
}
