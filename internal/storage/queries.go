package storage

import (
	"context"
)

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (description, amount, category, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, description, amount, category, created_at
`

type CreateTransactionParams struct {
	Description string
	Amount      string
	Category    string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.CreatedAt,
	)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Description,
		&i.Amount,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, description, amount, category, created_at
FROM transactions
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.Description,
			&i.Amount,
			&i.Category,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listObservationsByCategory = `-- name: ListObservationsByCategory :many
SELECT created_at, amount
FROM transactions
WHERE category = ?
ORDER BY created_at
`

func (q *Queries) ListObservationsByCategory(ctx context.Context, category string) ([]Observation, error) {
	rows, err := q.db.QueryContext(ctx, listObservationsByCategory, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Observation
	for rows.Next() {
		var i Observation
		if err := rows.Scan(&i.CreatedAt, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPrediction = `-- name: CreatePrediction :one
INSERT INTO predictions (category, predicted_amount, target_month, model_fit, confidence_level, strategy, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, category, predicted_amount, target_month, model_fit, confidence_level, strategy, created_at
`

type CreatePredictionParams struct {
	Category        string
	PredictedAmount string
	TargetMonth     string
	ModelFit        float64
	ConfidenceLevel float64
	Strategy        string
	CreatedAt       string
}

func (q *Queries) CreatePrediction(ctx context.Context, arg CreatePredictionParams) (Prediction, error) {
	row := q.db.QueryRowContext(ctx, createPrediction,
		arg.Category,
		arg.PredictedAmount,
		arg.TargetMonth,
		arg.ModelFit,
		arg.ConfidenceLevel,
		arg.Strategy,
		arg.CreatedAt,
	)
	var i Prediction
	err := row.Scan(
		&i.ID,
		&i.Category,
		&i.PredictedAmount,
		&i.TargetMonth,
		&i.ModelFit,
		&i.ConfidenceLevel,
		&i.Strategy,
		&i.CreatedAt,
	)
	return i, err
}

const listPredictions = `-- name: ListPredictions :many
SELECT id, category, predicted_amount, target_month, model_fit, confidence_level, strategy, created_at
FROM predictions
WHERE (?1 = '' OR category = ?1)
ORDER BY created_at DESC, id DESC
LIMIT ?2
`

type ListPredictionsParams struct {
	Category string
	Limit    int64
}

// ListPredictions treats a negative limit as unbounded, which is how SQLite
// reads LIMIT -1.
func (q *Queries) ListPredictions(ctx context.Context, arg ListPredictionsParams) ([]Prediction, error) {
	rows, err := q.db.QueryContext(ctx, listPredictions, arg.Category, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Prediction
	for rows.Next() {
		var i Prediction
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.PredictedAmount,
			&i.TargetMonth,
			&i.ModelFit,
			&i.ConfidenceLevel,
			&i.Strategy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
