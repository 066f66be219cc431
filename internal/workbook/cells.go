package workbook

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Value returns the trimmed cell at idx, or "" when the row is short.
func Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(row[idx], "\u00A0", " "))
}

// NormalizeHeader lowercases a header and strips everything but letters and digits.
func NormalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = strings.ToLower(strings.TrimSpace(s))
	return nonAlphaNum.ReplaceAllString(s, "")
}

// HeaderMatches reports whether a header cell equals any of the aliases once
// normalized.
func HeaderMatches(cell string, aliases ...string) bool {
	h := NormalizeHeader(cell)
	if h == "" {
		return false
	}
	for _, a := range aliases {
		if h == NormalizeHeader(a) {
			return true
		}
	}
	return false
}

// FindHeaderRow scans the first maxScan rows for a cell matching one of the
// aliases. It returns -1 when no row qualifies.
func FindHeaderRow(rows [][]string, maxScan int, aliases ...string) int {
	for i, row := range rows {
		if i >= maxScan {
			break
		}
		for _, cell := range row {
			if HeaderMatches(cell, aliases...) {
				return i
			}
		}
	}
	return -1
}

// FindColumn returns the first column whose header matches an alias, or -1.
func FindColumn(header []string, aliases ...string) int {
	for i, cell := range header {
		if HeaderMatches(cell, aliases...) {
			return i
		}
	}
	return -1
}

var amountReplacer = strings.NewReplacer(",", "", " ", "", "₹", "", "$", "", "Rs.", "", "Rs", "", "INR", "")

// ParseAmount parses a monetary cell. Empty cells, dashes and text fail.
// Parenthesized amounts are negative.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// AmountOrZero parses a monetary cell, treating anything unparseable as zero.
func AmountOrZero(s string) decimal.Decimal {
	d, _ := ParseAmount(s)
	return d
}

// NormalizeID returns numeric ids in integer string form ("143.0" -> "143").
// Other ids are returned trimmed.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	if !d.Equal(d.Truncate(0)) {
		return s
	}
	return d.Truncate(0).String()
}
