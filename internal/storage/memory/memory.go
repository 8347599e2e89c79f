// Package memory is a process-local backend. Data does not survive restarts.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"spendcast/internal/core"
)

// SeedFile is the optional file NewFromDir reads transactions from, one per
// line as "YYYY-MM-DD,CATEGORY,AMOUNT,description".
const SeedFile = "seed_transactions.csv"

type Store struct {
	mu           sync.RWMutex
	nextTxID     int64
	nextPredID   int64
	transactions []core.Transaction
	predictions  []core.Prediction
}

func New() *Store {
	return &Store{}
}

// NewFromDir builds a store seeded from base/SeedFile. A missing file yields an
// empty store; malformed lines are reported.
func NewFromDir(base string) (*Store, error) {
	s := New()
	txs, err := readSeed(filepath.Join(base, SeedFile))
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if _, err := s.CreateTransaction(context.Background(), t); err != nil {
			return nil, fmt.Errorf("seed transaction %q: %w", t.Description, err)
		}
	}
	return s, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxID++
	t.ID = s.nextTxID
	s.transactions = append(s.transactions, t)
	return t, nil
}

// ListTransactions returns transactions newest first.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	out := append([]core.Transaction(nil), s.transactions...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete transaction %d: %w", id, core.ErrTransactionNotFound)
}

func (s *Store) ListObservations(_ context.Context, category core.Category) ([]core.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Observation
	for _, t := range s.transactions {
		if t.Category == category {
			out = append(out, t.Observation())
		}
	}
	return out, nil
}

func (s *Store) SavePrediction(_ context.Context, p core.Prediction) (core.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPredID++
	p.ID = s.nextPredID
	s.predictions = append(s.predictions, p)
	return p, nil
}

// ListPredictions returns predictions newest first.
func (s *Store) ListPredictions(_ context.Context, category core.Category, limit int) ([]core.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Prediction
	for i := len(s.predictions) - 1; i >= 0; i-- {
		p := s.predictions[i]
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func readSeed(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var out []core.Transaction
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return out, nil
}

func parseSeedLine(line string) (core.Transaction, error) {
	parts := strings.SplitN(line, ",", 4)
	if len(parts) != 4 {
		return core.Transaction{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	category, err := core.ParseCategory(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(parts[2])
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Description: strings.TrimSpace(parts[3]),
		Amount:      amount,
		Category:    category,
		CreatedAt:   date,
	}, nil
}

// Ping always succeeds; it lets the store stand in wherever a readiness check
// is expected.
func (s *Store) Ping(context.Context) error { return nil }
