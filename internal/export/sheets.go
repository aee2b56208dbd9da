package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/report"
)

// SheetsConfig holds the target spreadsheet and service account
// credentials. Inline JSON wins over a file path; when both are empty the
// GOOGLE_APPLICATION_CREDENTIALS file is used.
type SheetsConfig struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// SheetsExporter appends monthly report rows to one sheet of a Google
// spreadsheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsExporter(ctx context.Context, cfg SheetsConfig) (*SheetsExporter, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context, cfg SheetsConfig) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		credentialsJSON, err = os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	case strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != "":
		path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		credentialsJSON, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendMonthly appends the report rows below the last used row of the
// sheet.
func (e *SheetsExporter) AppendMonthly(ctx context.Context, rep *report.MonthlyReport) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get sheet dimensions for %s: %w", e.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	rows := monthlyRows(rep)
	dataRange := fmt.Sprintf("%s!A%d:G%d", e.sheetName, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s in sheet %s: %w", dataRange, e.sheetName, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"sheet", e.sheetName,
		"rows", len(rows),
		"month", rep.Overview.Label)

	return nil
}

// monthlyRows flattens a report into sheet rows, one overview row followed
// by category and budget rows. Amounts are written in major units so the
// spreadsheet can format them as currency.
func monthlyRows(rep *report.MonthlyReport) [][]any {
	ov := rep.Overview
	rows := [][]any{
		{ov.Label, "overview", "net", euros(ov.NetCents), euros(ov.InflowCents), euros(ov.OutflowCents), ov.TransactionCount},
	}
	for _, share := range rep.Shares {
		rows = append(rows, []any{ov.Label, "category", share.Name, euros(share.OutflowCents), share.Share, share.Count, ""})
	}
	for _, r := range rep.Budgets {
		if r.Err != nil {
			continue
		}
		st := r.Status
		rows = append(rows, []any{ov.Label, "budget", st.Name, euros(st.ActualCents), euros(st.LimitCents), st.Ratio, string(st.State)})
	}
	return rows
}

func euros(cents int64) float64 {
	return float64(cents) / 100.0
}
