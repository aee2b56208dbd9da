package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

type columnMap struct {
	date        int
	description int
	amount      int
	category    int
}

// ReadCSVFile reads statement entries from a CSV file at the given path.
func ReadCSVFile(path string, opts ParseOptions) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file %q: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, opts)
}

// ReadCSV reads statement entries from CSV. A first row naming the
// columns (date, description, amount, optional category, in any order) is
// honored; without one the columns are taken positionally in that order.
// Rows starting with # are comments. Unreadable rows are reported in the
// joined error alongside the parsed entries.
func ReadCSV(r io.Reader, opts ParseOptions) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	cols := columnMap{date: 0, description: 1, amount: 2, category: 3}
	start := 0
	if len(records) > 0 && isCSVHeader(records[0]) {
		cols = mapColumns(records[0])
		start = 1
	}

	var (
		entries []Entry
		errs    []string
	)
	for i := start; i < len(records); i++ {
		row := records[i]
		if len(row) == 0 || strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		if len(row) <= cols.date || len(row) <= cols.description || len(row) <= cols.amount {
			errs = append(errs, fmt.Sprintf("row %d: only %d columns", i+1, len(row)))
			continue
		}

		date, err := ParseDate(row[cols.date])
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		raw := strings.TrimSpace(row[cols.amount])
		cents, err := ParseAmountCents(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d: amount %q: %v", i+1, raw, err))
			continue
		}

		entry := Entry{
			Date:        date,
			Description: strings.TrimSpace(row[cols.description]),
			AmountCents: applySignConvention(cents, raw, opts),
		}
		if cols.category >= 0 && len(row) > cols.category {
			entry.Category = strings.TrimSpace(row[cols.category])
		}
		entries = append(entries, entry)
	}

	if len(errs) > 0 {
		return entries, fmt.Errorf("unparsed csv rows:\n- %s", strings.Join(errs, "\n- "))
	}
	return entries, nil
}

func isCSVHeader(row []string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), "date") {
			return true
		}
	}
	return false
}

func mapColumns(header []string) columnMap {
	cols := columnMap{date: -1, description: -1, amount: -1, category: -1}
	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "date":
			cols.date = i
		case "description", "details", "memo":
			cols.description = i
		case "amount", "value":
			cols.amount = i
		case "category":
			cols.category = i
		}
	}
	// Essentials missing from the header fall back to position.
	if cols.date < 0 {
		cols.date = 0
	}
	if cols.description < 0 {
		cols.description = 1
	}
	if cols.amount < 0 {
		cols.amount = 2
	}
	return cols
}
