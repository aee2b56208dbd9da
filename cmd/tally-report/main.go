package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/ratelimit"
	"tally/internal/report"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Optional month argument, e.g. "2026-07". Defaults to the current month.
	month := time.Time{}
	if len(os.Args) > 1 {
		parsed, err := time.Parse("2006-01", os.Args[1])
		if err != nil {
			logger.Error("Invalid month argument, expected YYYY-MM", "arg", os.Args[1], "error", err)
			os.Exit(1)
		}
		month = parsed
	}

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

	// Build the reporting service from config
	svcCfg := report.DefaultConfig()
	svcCfg.RateLimit = ratelimit.Config{
		Limit:           cfg.RateLimit,
		Window:          cfg.RateLimitWindow,
		CleanupInterval: ratelimit.DefaultConfig().CleanupInterval,
	}
	svcCfg.NearThreshold = cfg.NearThreshold
	svcCfg.TrendThreshold = cfg.TrendThreshold
	svcCfg.TrendBaseline = cfg.TrendBaseline

	svc, err := report.NewService(res.Store, svcCfg, nil)
	if err != nil {
		logger.Error("Failed to build report service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	rep, err := svc.MonthlyReport(ctx, report.MonthlyRequest{
		Caller: "tally-report",
		UserID: core.UserID(cfg.UserID),
		Month:  month,
	})
	if err != nil {
		logger.Error("Failed to generate monthly report", "error", err, "user_id", cfg.UserID)
		os.Exit(1)
	}

	switch cfg.ReportOutput {
	case "csv":
		writer := &export.CSVWriter{IncludeOverview: true}
		if err := writer.WriteToFile(cfg.ReportCSVPath, rep); err != nil {
			logger.Error("Failed to write CSV report", "error", err, "path", cfg.ReportCSVPath)
			os.Exit(1)
		}
		logger.Info("Report written", "path", cfg.ReportCSVPath, "month", rep.Overview.Label)
	case "sheets":
		exporter, err := export.NewSheetsExporter(ctx, export.SheetsConfig{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		if err := exporter.AppendMonthly(ctx, rep); err != nil {
			logger.Error("Failed to export report to Google Sheets", "error", err)
			os.Exit(1)
		}
	default:
		printReport(rep)
	}
}

func printReport(rep *report.MonthlyReport) {
	ov := rep.Overview

	fmt.Printf("Monthly report %s (user %d)\n", ov.Label, rep.UserID)
	fmt.Printf("Generated %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04"))

	fmt.Printf("  Inflow        %s\n", money(ov.InflowCents))
	fmt.Printf("  Outflow       %s\n", money(ov.OutflowCents))
	fmt.Printf("  Net           %s\n", money(ov.NetCents))
	fmt.Printf("  Transactions  %d\n", ov.TransactionCount)
	if ov.TopCategory != "" {
		fmt.Printf("  Top category  %s (%s)\n", ov.TopCategory, money(ov.TopCategoryOutflow))
	}
	fmt.Printf("  Daily average %s over %d of %d days\n", money(ov.DailyAverageOutflow), ov.DaysElapsed, ov.DaysInMonth)
	if ov.TransactionCount > 0 {
		fmt.Printf("  Typical txn   %s\n", money(ov.AverageTransactionCents))
	}
	if ov.ChangeDefined {
		fmt.Printf("  vs previous   %+.1f%% (was %s)\n", ov.ChangePercent*100, money(ov.PreviousOutflowCents))
	}

	if len(rep.Shares) > 0 {
		fmt.Printf("\nSpending by category\n")
		for _, share := range rep.Shares {
			fmt.Printf("  %-24s %12s  %5.1f%%  (%d)\n", share.Name, money(share.OutflowCents), share.Share*100, share.Count)
		}
	}

	if len(rep.Insights) > 0 {
		fmt.Printf("\nTrends\n")
		for _, in := range rep.Insights {
			fmt.Printf("  [%s] %s\n", in.Label, in.Message)
		}
	}

	if len(rep.Budgets) > 0 {
		fmt.Printf("\nBudgets\n")
		for _, r := range rep.Budgets {
			if r.Err != nil {
				fmt.Printf("  [error] %v\n", r.Err)
				continue
			}
			st := r.Status
			fmt.Printf("  [%s] %-20s %s of %s (%.1f%%)\n",
				st.State, st.Name, money(st.ActualCents), money(st.LimitCents), st.Ratio*100)
		}
	}

	if len(rep.Forecasts) > 0 {
		fmt.Printf("\nForecasts\n")
		for _, f := range rep.Forecasts {
			fmt.Printf("  budget %d: %s projected by %s (%s, %d days left)\n",
				f.BudgetID, money(f.ProjectedCents), f.Bucket.Label(), f.State, f.DaysRemaining)
		}
	}
}

func money(cents int64) string {
	return core.Money{Cents: cents}.String()
}
