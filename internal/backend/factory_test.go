package backend

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spendcast/internal/config"
	"spendcast/internal/core"
	"spendcast/internal/storage/memory"
)

func quietFactory() *DefaultFactory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/x.db", DataDirectory: "seed"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLite || got.SQLiteDBPath != "/tmp/x.db" || got.DataDirectory != "seed" {
		t.Errorf("FromAppConfig() = %+v", got)
	}

	cfg.DataBackend = "postgres"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: Memory}, ""},
		{"sqlite without path", Config{Type: SQLite}, "SQLite database path is required"},
		{"sheets without id", Config{Type: Sheets}, "Google Spreadsheet ID is required"},
		{"unknown", Config{Type: "redis"}, "invalid backend type: redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()

	res, err := quietFactory().Create(ctx, Config{Type: Memory})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := res.Store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	dir := t.TempDir()
	seed := "2025-01-05,FOOD,100.00,groceries\n2025-02-05,FOOD,110.00,groceries\n"
	if err := os.WriteFile(filepath.Join(dir, memory.SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = quietFactory().Create(ctx, Config{Type: Memory, DataDirectory: dir})
	if err != nil {
		t.Fatalf("Create() with seed error = %v", err)
	}
	obs, err := res.Store.ListObservations(ctx, core.Food)
	if err != nil || len(obs) != 2 {
		t.Fatalf("ListObservations() = %d, %v; want 2 seeded observations", len(obs), err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "forecast.db")

	res, err := quietFactory().Create(ctx, Config{Type: SQLite, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer res.Close()

	if err := res.Store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	if _, err := quietFactory().Create(context.Background(), Config{Type: SQLite}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNilResultClose(t *testing.T) {
	var r *Result
	if err := r.Close(); err != nil {
		t.Fatalf("Close() on nil result = %v", err)
	}
}
