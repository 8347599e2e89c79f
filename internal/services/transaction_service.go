package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendcast/internal/cache"
	"spendcast/internal/core"
	"spendcast/internal/ports"
)

const allTransactionsKey = "transactions:all"

type TransactionStore interface {
	ports.TransactionWriter
	ports.TransactionLister
	ports.TransactionDeleter
}

// ForecastRequester asks for a category to be re-forecast asynchronously.
type ForecastRequester interface {
	PublishForecastRequest(ctx context.Context, category core.Category) error
}

// TransactionService wraps a store with a read cache for the full listing.
// Writes clear the cache.
type TransactionService struct {
	store    TransactionStore
	cache    cache.Cache[[]core.Transaction]
	requests ForecastRequester
	logger   *slog.Logger
	now      func() time.Time
}

type TransactionOption func(*TransactionService)

// WithForecastRequests publishes a forecast request for the category of every
// created transaction.
func WithForecastRequests(r ForecastRequester) TransactionOption {
	return func(s *TransactionService) { s.requests = r }
}

func NewTransactionService(store TransactionStore, c cache.Cache[[]core.Transaction], logger *slog.Logger, opts ...TransactionOption) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TransactionService{
		store:  store,
		cache:  c,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores t. A zero CreatedAt defaults to now.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.invalidate()

	s.logger.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"category", created.Category.String(),
		"amount", created.Amount.String())

	if s.requests != nil {
		if err := s.requests.PublishForecastRequest(ctx, created.Category); err != nil {
			s.logger.WarnContext(ctx, "Failed to request forecast refresh",
				"category", created.Category.String(),
				"error", err)
		}
	}
	return created, nil
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(allTransactionsKey); ok {
			return append([]core.Transaction(nil), cached...), nil
		}
	}

	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(allTransactionsKey, append([]core.Transaction(nil), txs...))
	}
	return txs, nil
}

// Delete returns an error wrapping core.ErrTransactionNotFound for unknown IDs.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (s *TransactionService) invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}
