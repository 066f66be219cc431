package matching

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bonus-service/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func computation(id string, amount string) models.BonusComputation {
	a := dec(amount)
	return models.BonusComputation{
		EmpID:            id,
		Name:             "Employee " + id,
		Department:       "S",
		Cohort:           models.CohortStaff,
		TotalGrossSalary: a,
		Gross2:           a,
		Register:         a,
		Actual:           a,
		Unpaid:           a,
		FinalPayout:      a,
		Reim:             a,
	}
}

func uniform(amount string) models.FieldSet {
	a := dec(amount)
	return models.FieldSet{GrossSalary: a, Gross2: a, Register: a, Actual: a, Unpaid: a, FinalPayout: a, Reim: a}
}

func TestProcessMatchesWithinToleranceOnEveryField(t *testing.T) {
	// GIVEN HR amounts exactly one unit away on every field
	engine := NewMatchEngine(DefaultTolerance)
	engine.SetData(
		[]models.BonusComputation{computation("143", "1000")},
		map[string]models.HREntry{"143": {EmpID: "143", Fields: uniform("999.00")}},
	)

	// WHEN matching
	result := engine.ProcessMatches()

	// THEN the employee matches
	require.Len(t, result.Records, 1)
	record := result.Records[0]
	assert.Equal(t, models.StatusMatch, record.Status)
	assert.Equal(t, models.SourceBoth, record.Source)
	assert.Empty(t, record.MismatchedFields)
	require.NotNil(t, record.Diff)
	assert.True(t, dec("1").Equal(record.Diff.Register))
	assert.Equal(t, 1, result.Summary.Matched)
}

func TestProcessMatchesBeyondToleranceOnOneField(t *testing.T) {
	engine := NewMatchEngine(DefaultTolerance)
	hr := uniform("1000")
	hr.Reim = dec("1001.50")
	engine.SetData(
		[]models.BonusComputation{computation("143", "1000")},
		map[string]models.HREntry{"143": {EmpID: "143", Fields: hr}},
	)

	result := engine.ProcessMatches()

	record := result.Records[0]
	assert.Equal(t, models.StatusMismatch, record.Status)
	assert.Equal(t, []string{"reim"}, record.MismatchedFields)
	assert.True(t, dec("-1.50").Equal(record.Diff.Reim))
	assert.Equal(t, 1, result.Summary.Mismatched)
}

func TestToleranceIsSymmetric(t *testing.T) {
	tests := []struct {
		name     string
		hr       string
		expected string
	}{
		{"one above", "1001", models.StatusMatch},
		{"one below", "999", models.StatusMatch},
		{"two above", "1002", models.StatusMismatch},
		{"two below", "998", models.StatusMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewMatchEngine(DefaultTolerance)
			engine.SetData(
				[]models.BonusComputation{computation("7", "1000")},
				map[string]models.HREntry{"7": {EmpID: "7", Fields: uniform(tt.hr)}},
			)
			assert.Equal(t, tt.expected, engine.ProcessMatches().Records[0].Status)
		})
	}
}

func TestProcessMatchesMissingAndHROnly(t *testing.T) {
	engine := NewMatchEngine(DefaultTolerance)
	engine.SetData(
		[]models.BonusComputation{computation("1", "100"), computation("2", "200")},
		map[string]models.HREntry{
			"1":  {EmpID: "1", Fields: uniform("100")},
			"9":  {EmpID: "9", Fields: uniform("50")},
			"10": {EmpID: "10", Fields: uniform("50")},
		},
	)

	result := engine.ProcessMatches()

	require.Len(t, result.Records, 2)
	missing := result.Records[1]
	assert.Equal(t, models.StatusMissing, missing.Status)
	assert.Equal(t, models.SourceSystemOnly, missing.Source)
	assert.Nil(t, missing.HR)
	assert.Nil(t, missing.Diff)

	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Matched)
	assert.Equal(t, 1, result.Summary.Missing)
	assert.Equal(t, []string{"10", "9"}, result.Summary.HROnly)
	assert.True(t, dec("300").Equal(result.Summary.SystemTotals.Register))
	assert.True(t, dec("200").Equal(result.Summary.HRTotals.Register))
}

func TestProcessMatchesLeavesBareMarkerSentinelsMissing(t *testing.T) {
	// GIVEN two distinct sentinel individuals sharing the bare id "N"
	first, second := computation("N", "100"), computation("N", "100")
	first.IsSentinel, second.IsSentinel = true, true
	first.Name, second.Name = "Kiran", "Ravi"

	engine := NewMatchEngine(DefaultTolerance)
	engine.SetData(
		[]models.BonusComputation{first, second},
		map[string]models.HREntry{"N": {EmpID: "N", Fields: uniform("100")}},
	)

	// WHEN matched against an HR row filed under "N"
	result := engine.ProcessMatches()

	// THEN neither claims the HR row
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, models.StatusMissing, rec.Status)
		assert.Nil(t, rec.HR)
	}
	assert.Equal(t, 2, result.Summary.Missing)
	assert.Equal(t, []string{"N"}, result.Summary.HROnly)
}

func TestProcessMatchesWithoutLedger(t *testing.T) {
	engine := NewMatchEngine(dec("-1"))
	engine.SetData([]models.BonusComputation{computation("1", "100")}, nil)

	result := engine.ProcessMatches()

	assert.Equal(t, models.StatusMissing, result.Records[0].Status)
	assert.Empty(t, result.Summary.HROnly)
	assert.Empty(t, engine.MismatchedFields(uniform("1")))
}
