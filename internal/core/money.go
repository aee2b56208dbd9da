// Package core holds the domain types shared by every component: ledger
// records, money in integer minor units, period granularities, and the
// error taxonomy. Amounts are never represented as floating point; cents
// arithmetic keeps totals exact regardless of input order.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseSignedCents converts a decimal string to signed cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading sign, and performs half-up rounding on the third decimal
// place. Zero amounts are rejected: a statement row or budget limit of 0.00
// carries no information and usually indicates a parse upstream went wrong.
//
// Examples:
//
//	ParseSignedCents("12.34")  -> 1234, nil
//	ParseSignedCents("-12,34") -> -1234, nil
//	ParseSignedCents("12.345") -> 1234, nil (rounds down)
//	ParseSignedCents("12.346") -> 1235, nil (rounds up)
func ParseSignedCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	cents, err := parseUnsignedCents(s)
	if err != nil {
		return 0, err
	}
	if negative {
		return -cents, nil
	}
	return cents, nil
}

// ParseDecimalToCents converts a decimal string to positive cents. Signs are
// rejected outright; budget limits and manually entered amounts are always
// positive magnitudes.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	return parseUnsignedCents(s)
}

func parseUnsignedCents(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take the first two fractional digits, then half-up rounding on the third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Abs returns the magnitude in cents.
func (m Money) Abs() int64 {
	if m.Cents < 0 {
		return -m.Cents
	}
	return m.Cents
}

// String formats the amount in major units with two decimals, e.g. "-50.00".
// Display only; calculations stay in cents.
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
