package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"bonus-service/internal/models"
)

// DefaultTolerance is the per-field allowance, in currency units, for
// rounding drift between system and HR amounts.
var DefaultTolerance = decimal.NewFromInt(1)

type MatchResult struct {
	Records []models.ReconciliationRecord
	Summary models.ReconciliationSummary
}

type MatchEngine struct {
	tolerance    decimal.Decimal
	computations []models.BonusComputation
	hrEntries    map[string]models.HREntry
}

func NewMatchEngine(tolerance decimal.Decimal) *MatchEngine {
	if tolerance.IsNegative() {
		tolerance = tolerance.Neg()
	}
	return &MatchEngine{tolerance: tolerance}
}

func (m *MatchEngine) SetData(computations []models.BonusComputation, hrEntries map[string]models.HREntry) {
	m.computations = computations
	m.hrEntries = hrEntries
}

// ProcessMatches classifies every computation against the HR ledger, in
// computation order, and aggregates the outcome.
func (m *MatchEngine) ProcessMatches() *MatchResult {
	result := &MatchResult{
		Records: make([]models.ReconciliationRecord, 0, len(m.computations)),
	}

	processedHRIDs := make(map[string]bool)

	for _, c := range m.computations {
		system := models.FieldSetFrom(c)
		result.Summary.SystemTotals = result.Summary.SystemTotals.Add(system)

		entry, ok := m.hrEntries[c.EmpID]
		if !ok || !c.HasLedgerIdentity() {
			result.Records = append(result.Records, models.ReconciliationRecord{
				EmpID:      c.EmpID,
				Name:       c.Name,
				Department: c.Department,
				Cohort:     c.Cohort,
				Status:     models.StatusMissing,
				Source:     models.SourceSystemOnly,
				System:     system,
			})
			result.Summary.Missing++
			continue
		}
		processedHRIDs[c.EmpID] = true

		record := m.checkEntry(c, system, entry)
		if record.Status == models.StatusMatch {
			result.Summary.Matched++
		} else {
			result.Summary.Mismatched++
		}
		result.Records = append(result.Records, record)
	}

	for id, entry := range m.hrEntries {
		result.Summary.HRTotals = result.Summary.HRTotals.Add(entry.Fields)
		if !processedHRIDs[id] {
			result.Summary.HROnly = append(result.Summary.HROnly, id)
		}
	}
	sort.Strings(result.Summary.HROnly)

	result.Summary.Total = len(result.Records)
	return result
}

func (m *MatchEngine) checkEntry(c models.BonusComputation, system models.FieldSet, entry models.HREntry) models.ReconciliationRecord {
	hr := entry.Fields
	diff := system.Sub(hr)
	mismatched := m.MismatchedFields(diff)

	status := models.StatusMatch
	if len(mismatched) > 0 {
		status = models.StatusMismatch
	}

	return models.ReconciliationRecord{
		EmpID:            c.EmpID,
		Name:             c.Name,
		Department:       c.Department,
		Cohort:           c.Cohort,
		Status:           status,
		Source:           models.SourceBoth,
		System:           system,
		HR:               &hr,
		Diff:             &diff,
		MismatchedFields: mismatched,
	}
}

// MismatchedFields names the fields whose absolute difference exceeds the tolerance.
func (m *MatchEngine) MismatchedFields(diff models.FieldSet) []string {
	var fields []string
	for i, d := range diff.Values() {
		if d.Abs().GreaterThan(m.tolerance) {
			fields = append(fields, models.ReconciledFields[i])
		}
	}
	return fields
}
