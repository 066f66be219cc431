package fiscal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EstimatedMonth is the twelfth month, derived rather than read from a sheet.
const EstimatedMonth = "OCT"

// AugustIndex is the fiscal position of the month gating the estimate.
const AugustIndex = 9

// FiscalMonths lists the eleven months read from payroll sheets, in fiscal order.
var FiscalMonths = []string{
	"NOV", "DEC", "JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP",
}

var monthCodes = []string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

var monthVariants = map[string]string{
	"JANUARY":   "JAN",
	"FEBRUARY":  "FEB",
	"MARCH":     "MAR",
	"APRIL":     "APR",
	"JUNE":      "JUN",
	"JULY":      "JUL",
	"AUGUST":    "AUG",
	"SEPT":      "SEP",
	"SEPTEMBER": "SEP",
	"OCTOBER":   "OCT",
	"NOVEMBER":  "NOV",
	"DECEMBER":  "DEC",
}

var sheetNamePattern = regexp.MustCompile(`^\s*([A-Za-z]+)\.?[\s\-_'/.,]*(\d{2,4})(?:\D|$)`)

// MonthCode maps a month-name variant to its three-letter code.
func MonthCode(token string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if code, ok := monthVariants[t]; ok {
		return code, true
	}
	if len(t) < 3 {
		return "", false
	}
	prefix := t[:3]
	for _, code := range monthCodes {
		if code == prefix {
			return code, true
		}
	}
	return "", false
}

// ParseMonthKey extracts a canonical "MON-YY" key from a sheet name or header.
func ParseMonthKey(name string) (string, bool) {
	m := sheetNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	code, ok := MonthCode(m[1])
	if !ok {
		return "", false
	}
	year := m[2]
	if len(year) == 3 {
		return "", false
	}
	if len(year) == 4 {
		year = year[2:]
	}
	return fmt.Sprintf("%s-%s", code, year), true
}

// MonthKey normalizes a sheet name. Names that do not parse degrade to their
// first six characters.
func MonthKey(name string) string {
	if key, ok := ParseMonthKey(name); ok {
		return key
	}
	trimmed := []rune(strings.TrimSpace(name))
	if len(trimmed) > 6 {
		trimmed = trimmed[:6]
	}
	return string(trimmed)
}

// CodeOf returns the month code of a canonical key, or "" for degraded keys.
func CodeOf(key string) string {
	code, _, ok := SplitKey(key)
	if !ok {
		return ""
	}
	return code
}

// SplitKey breaks a canonical key into its month code and two-digit year.
func SplitKey(key string) (string, int, bool) {
	code, yy, found := strings.Cut(key, "-")
	if !found || len(code) != 3 || len(yy) != 2 {
		return "", 0, false
	}
	if _, ok := MonthCode(code); !ok {
		return "", 0, false
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return "", 0, false
	}
	return code, year, true
}

// FiscalIndex returns the position of a month code in fiscal order, with the
// estimated month last. Unknown codes return -1.
func FiscalIndex(code string) int {
	for i, c := range FiscalMonths {
		if c == code {
			return i
		}
	}
	if code == EstimatedMonth {
		return len(FiscalMonths)
	}
	return -1
}

// Less orders canonical keys by fiscal year then fiscal month. Degraded keys
// sort after parsed ones, lexically.
func Less(a, b string) bool {
	ac, ay, aok := SplitKey(a)
	bc, by, bok := SplitKey(b)
	switch {
	case !aok && !bok:
		return a < b
	case !aok:
		return false
	case !bok:
		return true
	}
	af, bf := fiscalYear(ac, ay), fiscalYear(bc, by)
	if af != bf {
		return af < bf
	}
	return FiscalIndex(ac) < FiscalIndex(bc)
}

// fiscalYear returns the year the fiscal period containing the month starts in.
func fiscalYear(code string, year int) int {
	if code == "NOV" || code == "DEC" {
		return year
	}
	return year - 1
}
