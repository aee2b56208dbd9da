package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/statement"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: tally-import <statement.pdf|statement.csv> [fallback-category]")
		os.Exit(2)
	}
	path := os.Args[1]
	fallbackCategory := ""
	if len(os.Args) > 2 {
		fallbackCategory = os.Args[2]
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Statements from banks that print debits unsigned need the sign flipped
	opts := statement.ParseOptions{
		DebitsArePositive: os.Getenv("IMPORT_DEBITS_POSITIVE") == "true",
	}

	entries, err := readStatement(path, opts)
	if err != nil {
		if len(entries) == 0 {
			logger.Error("Failed to read statement", "error", err, "path", path)
			os.Exit(1)
		}
		// Partial parse: keep what was readable, report the rest
		logger.Warn("Some statement rows could not be parsed", "error", err, "path", path)
	}
	if len(entries) == 0 {
		logger.Error("Statement contained no transaction rows", "path", path)
		os.Exit(1)
	}
	logger.Info("Statement parsed", "path", path, "entries", len(entries))

	ctx := context.Background()

	// Open the ledger store
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.Open(ctx, backendCfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	importer, err := statement.NewImporter(res.Store, nil)
	if err != nil {
		logger.Error("Failed to build importer", "error", err)
		os.Exit(1)
	}

	result, err := importer.Import(ctx, core.UserID(cfg.UserID), entries, fallbackCategory)
	if err != nil {
		logger.Error("Import failed", "error", err,
			"imported", result.Imported,
			"skipped", result.Skipped)
		os.Exit(1)
	}

	logger.Info("Import complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"categories_created", result.CategoriesCreated,
		"user_id", cfg.UserID)
}

// readStatement picks the reader by file extension. PDF pages are split
// into lines before parsing; CSV rows go through the column mapper.
func readStatement(path string, opts statement.ParseOptions) ([]statement.Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err := statement.ExtractText(path)
		if err != nil {
			return nil, err
		}
		var lines []string
		for _, page := range pages {
			lines = append(lines, strings.Split(page, "\n")...)
		}
		return statement.ParseLines(lines, opts)
	case ".csv":
		return statement.ReadCSVFile(path, opts)
	default:
		return nil, fmt.Errorf("unsupported statement format %q: expected .pdf or .csv", filepath.Ext(path))
	}
}
