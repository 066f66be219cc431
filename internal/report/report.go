package report

import (
	"time"

	"bonus-service/internal/bonus"
	"bonus-service/internal/models"
)

// CohortSection is one cohort's rows grouped by department.
type CohortSection struct {
	Cohort models.Cohort     `json:"cohort"`
	Groups []DepartmentGroup `json:"groups"`
}

// Report is everything a renderer needs: grouped rows, the column formulas,
// the summary, the monthly comparison and the reconciliation outcome.
type Report struct {
	RunID                 string                        `json:"run_id"`
	AsOf                  time.Time                     `json:"as_of"`
	Empty                 bool                          `json:"empty"`
	Columns               []Column                      `json:"columns"`
	Cohorts               []CohortSection               `json:"cohorts"`
	Summary               Summary                       `json:"summary"`
	Comparison            []MonthComparison             `json:"comparison"`
	Reconciliation        []models.ReconciliationRecord `json:"reconciliation"`
	ReconciliationSummary models.ReconciliationSummary  `json:"reconciliation_summary"`
}

// Input gathers the results of one pipeline run.
type Input struct {
	RunID                 string
	AsOf                  time.Time
	Rules                 bonus.Rules
	Computations          []models.BonusComputation
	HR                    map[string]models.HREntry
	Reconciliation        []models.ReconciliationRecord
	ReconciliationSummary models.ReconciliationSummary
}

var cohortOrder = []models.Cohort{models.CohortStaff, models.CohortWorker}

// Build assembles the report. Zero computations yield a placeholder report
// flagged Empty.
func Build(in Input) *Report {
	r := &Report{
		RunID:                 in.RunID,
		AsOf:                  in.AsOf,
		Columns:               Columns(in.Rules),
		Reconciliation:        in.Reconciliation,
		ReconciliationSummary: in.ReconciliationSummary,
	}

	if len(in.Computations) == 0 {
		r.Empty = true
		r.Cohorts = []CohortSection{}
		r.Comparison = []MonthComparison{}
		return r
	}

	byCohort := make(map[models.Cohort][]models.BonusComputation)
	for _, c := range in.Computations {
		byCohort[c.Cohort] = append(byCohort[c.Cohort], c)
	}
	for _, cohort := range cohortOrder {
		computations, ok := byCohort[cohort]
		if !ok {
			continue
		}
		r.Cohorts = append(r.Cohorts, CohortSection{Cohort: cohort, Groups: Regroup(computations)})
	}

	r.Summary = summarize(r.Cohorts, in.Computations)
	r.Comparison = MonthlyComparison(in.Computations, in.HR)
	return r
}
