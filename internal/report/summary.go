package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
)

type DepartmentTotals struct {
	Department string `json:"department"`
	Totals     Totals `json:"totals"`
}

// CohortSummary carries per-department totals from the regrouped rows and a
// cohort total taken from the whole computations.
type CohortSummary struct {
	Cohort      models.Cohort      `json:"cohort"`
	Departments []DepartmentTotals `json:"departments"`
	Totals      Totals             `json:"totals"`
}

type Summary struct {
	Cohorts     []CohortSummary `json:"cohorts"`
	GrandTotals Totals          `json:"grand_totals"`
}

func summarize(sections []CohortSection, computations []models.BonusComputation) Summary {
	var summary Summary

	byCohort := make(map[models.Cohort][]models.BonusComputation)
	for _, c := range computations {
		byCohort[c.Cohort] = append(byCohort[c.Cohort], c)
	}

	for _, section := range sections {
		cs := CohortSummary{
			Cohort: section.Cohort,
			Totals: totalsOf(byCohort[section.Cohort]),
		}
		for _, g := range section.Groups {
			cs.Departments = append(cs.Departments, DepartmentTotals{Department: g.Department, Totals: g.Totals})
		}
		summary.Cohorts = append(summary.Cohorts, cs)
	}

	// Grand totals come from the whole computations so that employees
	// spanning departments are counted once.
	summary.GrandTotals = totalsOf(computations)
	return summary
}

// MonthComparison pairs the system's and HR's gross totals for one month.
type MonthComparison struct {
	Month      string          `json:"month"`
	OurTotal   decimal.Decimal `json:"our_total"`
	HRTotal    decimal.Decimal `json:"hr_total"`
	Difference decimal.Decimal `json:"difference"`
}

// MonthlyComparison totals salaries per month key from the normalized
// records and from the HR ledger's month columns, in fiscal order.
func MonthlyComparison(computations []models.BonusComputation, hr map[string]models.HREntry) []MonthComparison {
	ours := make(map[string]decimal.Decimal)
	theirs := make(map[string]decimal.Decimal)
	months := make(map[string]bool)

	for _, c := range computations {
		for _, rec := range c.MonthlyRecords {
			ours[rec.Month] = ours[rec.Month].Add(rec.Salary)
			months[rec.Month] = true
		}
	}
	for _, entry := range hr {
		for month, amount := range entry.Monthly {
			theirs[month] = theirs[month].Add(amount)
			months[month] = true
		}
	}

	keys := make([]string, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return fiscal.Less(keys[i], keys[j]) })

	rows := make([]MonthComparison, 0, len(keys))
	for _, m := range keys {
		rows = append(rows, MonthComparison{
			Month:      m,
			OurTotal:   ours[m],
			HRTotal:    theirs[m],
			Difference: ours[m].Sub(theirs[m]),
		})
	}
	return rows
}
