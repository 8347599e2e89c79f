// Package backend selects and builds the storage backend named in the
// configuration.
package backend

import (
	"context"

	"spendcast/internal/ports"
)

// Store is the full set of ports every backend implements, plus a readiness
// probe.
type Store interface {
	ports.HistoryReader
	ports.PredictionWriter
	ports.PredictionLister
	ports.TransactionWriter
	ports.TransactionLister
	ports.TransactionDeleter

	Ping(ctx context.Context) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the store and an optional cleanup function
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID     string
	GoogleObservationsSheet string
	GooglePredictionsSheet  string

	// Memory backend seed directory
	DataDirectory string
}

// Type names a backend
type Type string

const (
	SQLite Type = "sqlite"
	Sheets Type = "sheets"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Sheets, Memory:
		return true
	default:
		return false
	}
}
