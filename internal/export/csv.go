// Package export renders monthly reports for spreadsheets, either CSV on
// disk or an append to a Google Sheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"tally/internal/core"
	"tally/internal/report"
)

// CSVWriter writes a monthly report to CSV format.
type CSVWriter struct {
	IncludeOverview bool
}

// WriteToFile writes the report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, rep *report.MonthlyReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, rep)
}

// Write writes the report in CSV format to the given writer. Category
// share rows come first, then budget rows; budgets that could not be
// evaluated are skipped.
func (w *CSVWriter) Write(out io.Writer, rep *report.MonthlyReport) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	// Write metadata as comments (CSV header rows)
	if w.IncludeOverview {
		ov := rep.Overview
		writer.Write([]string{"# Month", ov.Label})
		writer.Write([]string{"# Generated", rep.GeneratedAt.UTC().Format(time.RFC3339)})
		writer.Write([]string{"# Inflow", formatCents(ov.InflowCents)})
		writer.Write([]string{"# Outflow", formatCents(ov.OutflowCents)})
		writer.Write([]string{"# Net", formatCents(ov.NetCents)})
		writer.Write([]string{"# Transactions", strconv.Itoa(ov.TransactionCount)})
		if ov.ChangeDefined {
			writer.Write([]string{"# Change vs previous month", formatPercent(ov.ChangePercent)})
		}
	}

	header := []string{"Kind", "Name", "Outflow", "Share", "Limit", "State"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, share := range rep.Shares {
		row := []string{
			"category",
			share.Name,
			formatCents(share.OutflowCents),
			formatPercent(share.Share),
			"",
			"",
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	for _, r := range rep.Budgets {
		if r.Err != nil {
			continue
		}
		st := r.Status
		row := []string{
			"budget",
			st.Name,
			formatCents(st.ActualCents),
			"",
			formatCents(st.LimitCents),
			string(st.State),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

func formatCents(cents int64) string {
	return core.Money{Cents: cents}.String()
}

func formatPercent(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', 1, 64) + "%"
}
