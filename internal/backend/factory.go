package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/ledger/memory"
	"tally/internal/postgres"
	"tally/internal/storage"
)

// Open creates the ledger store named by the config. The returned cleanup
// releases the store's resources and may be nil.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		return openSQLite(cfg, logger)
	case PostgresBackend:
		return openPostgres(ctx, cfg, logger)
	case MemoryBackend:
		return openMemory(logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func openSQLite(cfg Config, logger *slog.Logger) (*Result, error) {
	store, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store: %w", err)
	}

	logger.Info("Initialized SQLite backend", "db_path", cfg.SQLitePath)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	store, err := postgres.NewStore(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("initialize Postgres store: %w", err)
	}

	logger.Info("Initialized Postgres backend")

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func openMemory(logger *slog.Logger) (*Result, error) {
	logger.Info("Initialized memory backend")

	return &Result{
		Store:   memory.NewStore(),
		Cleanup: nil,
	}, nil
}
