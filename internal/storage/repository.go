package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"spendcast/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *slog.Logger
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateTransaction implements ports.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Description: t.Description,
		Amount:      t.Amount.String(),
		Category:    t.Category.String(),
		CreatedAt:   formatTime(t.CreatedAt),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"category", row.Category,
		"amount", row.Amount)

	return toTransaction(row)
}

// ListTransactions implements ports.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteTransaction implements ports.TransactionDeleter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrTransactionNotFound)
	}
	return nil
}

// ListObservations implements ports.HistoryReader
func (r *SQLiteRepository) ListObservations(ctx context.Context, category core.Category) ([]core.Observation, error) {
	rows, err := r.queries.ListObservationsByCategory(ctx, category.String())
	if err != nil {
		return nil, fmt.Errorf("list observations for %s: %w", category, err)
	}

	out := make([]core.Observation, len(rows))
	for i, row := range rows {
		ts, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", row.Amount, err)
		}
		out[i] = core.Observation{Timestamp: ts, Amount: amount}
	}
	return out, nil
}

// SavePrediction implements ports.PredictionWriter
func (r *SQLiteRepository) SavePrediction(ctx context.Context, p core.Prediction) (core.Prediction, error) {
	row, err := r.queries.CreatePrediction(ctx, CreatePredictionParams{
		Category:        p.Category.String(),
		PredictedAmount: p.PredictedAmount.StringFixed(2),
		TargetMonth:     core.MonthOf(p.TargetMonth).String(),
		ModelFit:        p.ModelFit,
		ConfidenceLevel: p.ConfidenceLevel,
		Strategy:        p.Strategy,
		CreatedAt:       formatTime(p.CreatedAt),
	})
	if err != nil {
		return core.Prediction{}, fmt.Errorf("create prediction: %w", err)
	}

	r.logger.InfoContext(ctx, "Prediction saved to SQLite",
		"id", row.ID,
		"category", row.Category,
		"target_month", row.TargetMonth,
		"strategy", row.Strategy)

	return toPrediction(row)
}

// ListPredictions implements ports.PredictionLister
func (r *SQLiteRepository) ListPredictions(ctx context.Context, category core.Category, limit int) ([]core.Prediction, error) {
	lim := int64(limit)
	if limit <= 0 {
		lim = -1
	}
	rows, err := r.queries.ListPredictions(ctx, ListPredictionsParams{
		Category: category.String(),
		Limit:    lim,
	})
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	out := make([]core.Prediction, 0, len(rows))
	for _, row := range rows {
		p, err := toPrediction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func toTransaction(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", row.Amount, err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		Description: row.Description,
		Amount:      amount,
		Category:    core.Category(row.Category),
		CreatedAt:   createdAt,
	}, nil
}

func toPrediction(row Prediction) (core.Prediction, error) {
	amount, err := decimal.NewFromString(row.PredictedAmount)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("parse stored prediction amount %q: %w", row.PredictedAmount, err)
	}
	target, err := core.ParseMonth(row.TargetMonth)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("parse stored target month: %w", err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Prediction{}, err
	}
	return core.Prediction{
		ID:              row.ID,
		Category:        core.Category(row.Category),
		PredictedAmount: amount,
		TargetMonth:     target.FirstDay(time.UTC),
		CreatedAt:       createdAt,
		ModelFit:        row.ModelFit,
		ConfidenceLevel: row.ConfidenceLevel,
		Strategy:        row.Strategy,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
