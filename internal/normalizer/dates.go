package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// SentinelJoiningDate is assigned to "N" rows. It never feeds eligibility math.
var SentinelJoiningDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var joiningDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"02-Jan-06",
	"02-01-06",
	"2-1-06",
	"02.01.06",
	"2.1.06",
	"02/01/06",
	"2/1/06",
}

// isNotApplicable reports whether a joining-date cell marks the row as not applicable.
func isNotApplicable(text string) bool {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "", "NA", "N.A", "N.A.", "N/A":
		return true
	}
	return false
}

// parseJoiningDate accepts the textual layouts seen in payroll sheets plus raw
// Excel serial numbers.
func parseJoiningDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(text, 64); err == nil {
		if serial <= 0 || serial > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return truncateDay(t), plausible(t)
	}

	for _, layout := range joiningDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return truncateDay(t), plausible(t)
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func plausible(t time.Time) bool {
	return t.Year() >= 1900 && t.Year() <= 2100
}
