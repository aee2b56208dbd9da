package statement

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tally/internal/core"
)

// Entry is one parsed statement row, not yet attached to a ledger.
type Entry struct {
	Date        time.Time
	Description string
	AmountCents int64
	Category    string
}

// ParseOptions controls how ambiguous rows are read.
type ParseOptions struct {
	// DebitsArePositive negates amounts written without an explicit sign,
	// for statements that list spending as bare positive numbers.
	DebitsArePositive bool
}

// Transaction line shape: DATE  DESCRIPTION  AMOUNT. The date alternation
// covers DD/MM/YYYY, ISO, and "2 Jan 2006" style layouts.
var linePattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|\d{1,2}[ -][A-Za-z]{3,9}[ -]\d{2,4})` +
		`\s+(.+?)\s+([-+]?[£$€]?\d(?:[\d.,]*\d)?)$`)

var datePrefixPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|\d{1,2}[ -][A-Za-z]{3,9}[ -]\d{2,4})\b`)

// dateLayouts are tried in order. Day comes first in slash dates, as on
// European statements.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
	"2 Jan 2006",
	"2 Jan 06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 January 2006",
}

// ParseDate reads one date token in any supported layout and returns it
// as a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmountCents converts a statement amount like "-£1,234.56" or
// "12,34" to signed cents. Currency symbols and thousands separators are
// stripped before the canonical decimal parse.
func ParseAmountCents(s string) (int64, error) {
	return core.ParseSignedCents(normalizeAmount(s))
}

// normalizeAmount resolves the separator soup of real statements. When
// both dot and comma are present the later one is the decimal separator;
// a lone comma followed by exactly three digits reads as thousands.
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"£", "$", "€", " ", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case comma >= 0 && len(s)-comma-1 == 3:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// ParseLines walks extracted statement text and returns the transaction
// rows it can read. Lines that continue a description are appended to the
// previous entry; header and summary lines are skipped. Unreadable rows
// are reported in the joined error alongside the parsed entries.
func ParseLines(lines []string, opts ParseOptions) ([]Entry, error) {
	var (
		entries []Entry
		errs    []string
		inTable bool
	)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || isSummaryLine(line) {
			continue
		}
		if isHeaderLine(line) {
			inTable = true
			continue
		}

		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			// Multi-line descriptions: a non-date line inside the table
			// extends the previous entry.
			if inTable && len(entries) > 0 && !startsWithDate(line) {
				last := &entries[len(entries)-1]
				last.Description += " " + line
			}
			continue
		}
		inTable = true

		date, err := ParseDate(m[1])
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		amount := m[3]
		cents, err := ParseAmountCents(amount)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: amount %q: %v", i+1, amount, err))
			continue
		}
		cents = applySignConvention(cents, amount, opts)

		entries = append(entries, Entry{
			Date:        date,
			Description: strings.TrimSpace(m[2]),
			AmountCents: cents,
		})
	}

	if len(errs) > 0 {
		return entries, fmt.Errorf("unparsed statement rows:\n- %s", strings.Join(errs, "\n- "))
	}
	return entries, nil
}

// applySignConvention flips unsigned amounts to outflows when the
// statement lists debits as bare positive numbers. The sign is looked for
// in the raw token so "£-12.34" still counts as explicitly signed.
func applySignConvention(cents int64, raw string, opts ParseOptions) int64 {
	if !opts.DebitsArePositive || cents <= 0 {
		return cents
	}
	if strings.Contains(raw, "-") || strings.Contains(raw, "+") {
		return cents
	}
	return -cents
}

func startsWithDate(line string) bool {
	return datePrefixPattern.MatchString(strings.TrimSpace(line))
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "date") &&
		(strings.Contains(lower, "description") || strings.Contains(lower, "details") ||
			strings.Contains(lower, "transaction") || strings.Contains(lower, "memo")) &&
		(strings.Contains(lower, "amount") || strings.Contains(lower, "paid") ||
			strings.Contains(lower, "balance") || strings.Contains(lower, "money"))
}

func isSummaryLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range []string{
		"opening balance", "closing balance", "balance brought forward",
		"brought forward", "total paid in", "total paid out",
		"statement period", "page ", "continued",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
