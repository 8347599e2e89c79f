// Package ports declares the outbound interfaces the services depend on.
// Every backend (memory, sqlite, sheets) implements the full set.
package ports

import (
	"context"

	"spendcast/internal/core"
)

type (
	// HistoryReader returns every recorded observation for a category, in any
	// order. Monthly grouping happens in the forecast package.
	HistoryReader interface {
		ListObservations(ctx context.Context, category core.Category) ([]core.Observation, error)
	}

	// PredictionWriter persists an assembled prediction and returns it with its
	// storage ID set.
	PredictionWriter interface {
		SavePrediction(ctx context.Context, p core.Prediction) (core.Prediction, error)
	}

	// PredictionLister lists saved predictions newest first. An empty category
	// means all categories; limit <= 0 means no limit.
	PredictionLister interface {
		ListPredictions(ctx context.Context, category core.Category, limit int) ([]core.Prediction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionDeleter returns core.ErrTransactionNotFound for unknown IDs.
	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id int64) error
	}
)
