// Package statement turns bank statements, PDF or CSV, into ledger
// transactions. Extraction is best effort: unreadable rows are reported
// and skipped, never guessed at.
package statement

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a PDF file and returns the text content of each page.
// It tries the row-based extraction first for layout preservation, then
// falls back to plain-text methods. Output that fails the readability
// check is rejected rather than returned as garbage.
func ExtractText(filePath string) ([]string, error) {
	pages, err := extractWithLibrary(filePath)
	if err != nil {
		return nil, fmt.Errorf("pdf text extraction: %w", err)
	}
	if !isReadableText(pages) {
		return nil, errors.New("no readable text could be extracted; the statement may be scanned or use custom font encodings")
	}
	return pages, nil
}

func extractWithLibrary(filePath string) (pages []string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, errors.New("pdf has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	pages = extractByPlainText(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	if text := extractWholeDocument(r); text != "" {
		pages = []string{text}
	}
	return pages, nil
}

// extractByRow preserves line structure via GetTextByRow.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByPlainText decodes each page with its font map.
func extractByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// extractWholeDocument is the last resort: one string for the whole file.
func extractWholeDocument(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// statementWords appear in virtually every bank statement. Extracted text
// containing none of them is treated as undecoded garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "transfer",
	"paid", "opening", "closing", "period", "card",
}

// isReadableText requires enough text, a high ratio of plain characters,
// and at least one recognizable statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of plain readable characters to total.
// The check is deliberately strict ASCII plus currency signs; decoded
// garbage from identity-encoded fonts tends to land outside it.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				readable++
			case unicode.IsSpace(r):
				readable++
			case strings.ContainsRune(`.,-/:;()'"%&@#!?+=*`, r):
				readable++
			case r == '£' || r == '$' || r == '€':
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
