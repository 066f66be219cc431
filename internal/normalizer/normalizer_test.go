package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

func staffHeader() [][]string {
	return [][]string{
		{"ANNUAL SALARY REGISTER"},
		{"Unit: Science Precision"},
		{},
		{"Sl", "Emp ID", "Dept", "Name", "Designation", "DOJ", "Gross Salary", "Mode"},
	}
}

func staffSheet(name string, rows ...[]string) workbook.Sheet {
	return workbook.Sheet{Name: name, Rows: append(staffHeader(), rows...)}
}

func normalizeStaff(t *testing.T, sheets ...workbook.Sheet) Result {
	t.Helper()
	n, err := New(models.CohortStaff, zap.NewNop())
	require.NoError(t, err)
	return n.Normalize(&workbook.Workbook{Name: "staff.xlsx", Sheets: sheets})
}

func TestNormalizeMergesSheetsIntoTimelines(t *testing.T) {
	result := normalizeStaff(t,
		staffSheet("NOV-24 S",
			[]string{"1", "143.0", "S", "Asha", "Eng", "2023-04-01", "30000", "Bank"},
			[]string{"2", "150", "SP", "Ravi", "Tech", "15/06/2024", "25,000", "Cash"},
		),
		staffSheet("DEC-24 S",
			[]string{"1", "143", "STAFF", "Asha", "Eng", "2023-04-01", "31000", "Bank"},
		),
	)

	require.Len(t, result.Employees, 2)
	asha := result.Employees[0]
	assert.Equal(t, "143", asha.EmpID)
	assert.Equal(t, "STAFF", asha.Department, "latest sheet wins the primary department")
	assert.Equal(t, time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), asha.DateOfJoining)
	require.Len(t, asha.Records, 2)
	assert.Equal(t, "NOV-24", asha.Records[0].Month)
	assert.Equal(t, "S", asha.Records[0].Department)
	assert.Equal(t, "DEC-24", asha.Records[1].Month)

	ravi := result.Employees[1]
	assert.True(t, ravi.IsCashSalary)
	assert.True(t, decimal.NewFromInt(25000).Equal(ravi.Records[0].Salary))
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), ravi.DateOfJoining)

	assert.Equal(t, 2, result.Stats.SheetsRead)
	assert.Equal(t, 3, result.Stats.RowsAccepted)
}

func TestNormalizeIgnoresOtherCohortSheets(t *testing.T) {
	result := normalizeStaff(t,
		staffSheet("NOV-24 W", []string{"1", "143", "W", "Asha", "", "2023-04-01", "30000"}),
		staffSheet("NOV-24S", []string{"1", "143", "S", "Asha", "", "2023-04-01", "30000"}),
		staffSheet("Summary", []string{"1", "143", "S", "Asha", "", "2023-04-01", "30000"}),
	)

	assert.Empty(t, result.Employees)
	assert.Equal(t, 3, result.Stats.SheetsIgnored)
}

func TestNormalizeKeepsSentinelRowsWithZeroSalary(t *testing.T) {
	// GIVEN two distinct sentinel individuals, one with no salary at all
	result := normalizeStaff(t,
		staffSheet("NOV-24 S",
			[]string{"1", "N", "S", "Kiran", "", "", "0"},
			[]string{"2", "N12", "S", "Meera", "", "N", ""},
			[]string{"3", "201", "S", "Dev", "", "N", "5000"},
		),
	)

	// THEN every sentinel is tracked under its own key in department N
	require.Len(t, result.Employees, 3)
	for _, emp := range result.Employees {
		assert.True(t, emp.IsSentinel)
		assert.Equal(t, models.SentinelDepartment, emp.Department)
		assert.Equal(t, SentinelJoiningDate, emp.DateOfJoining)
		require.Len(t, emp.Records, 1)
		assert.Equal(t, models.SentinelDepartment, emp.Records[0].Department)
	}
	assert.Equal(t, "N_Kiran", result.Employees[0].Key)
	assert.True(t, result.Employees[0].Records[0].Salary.IsZero())
	assert.Equal(t, "N_Dev", result.Employees[2].Key)
	assert.True(t, decimal.NewFromInt(5000).Equal(result.Employees[2].Records[0].Salary))
}

func TestNormalizeSkipsInvalidRows(t *testing.T) {
	result := normalizeStaff(t,
		staffSheet("NOV-24 S",
			[]string{"1", "301", "S", "NA Row", "", "N/A", "1000"},
			[]string{"2", "302", "S", "Dotted", "", "N.A.", "1000"},
			[]string{"3", "303", "S", "Empty DOJ", "", "", "1000"},
			[]string{"4", "304", "S", "Bad DOJ", "", "someday", "1000"},
			[]string{"5", "305", "S", "Zero Pay", "", "2020-01-01", "0"},
			[]string{"6", "Total", "", "", "", "", "9000"},
			[]string{"7", "306", "S", "total", "", "2020-01-01", "9000"},
			[]string{"8", "", "S", "No Id", "", "2020-01-01", "1000"},
			[]string{"9", "307", "S", "Kept", "", "2020-01-01", "1000"},
		),
	)

	require.Len(t, result.Employees, 1)
	assert.Equal(t, "307", result.Employees[0].EmpID)
	assert.Equal(t, 3, result.Stats.RowsSkipped[SkipJoiningNA])
	assert.Equal(t, 1, result.Stats.RowsSkipped[SkipJoiningUnparsed])
	assert.Equal(t, 1, result.Stats.RowsSkipped[SkipNonPositivePay])
	assert.Equal(t, 1, result.Stats.RowsSkipped[SkipTotalRow])
	assert.Equal(t, 2, result.Stats.RowsSkipped[SkipMissingIdentity])
}

func TestNormalizeFirstNonZeroWinsPerMonth(t *testing.T) {
	n, err := New(models.CohortStaff, nil)
	require.NoError(t, err)

	wb := &workbook.Workbook{Sheets: []workbook.Sheet{
		staffSheet("NOV-24 S", []string{"1", "143", "S", "Asha", "", "2020-01-01", "30000"}),
		staffSheet("Nov 2024-S", []string{"1", "143", "S", "Asha", "", "2020-01-01", "99999"}),
	}}
	result := n.Normalize(wb)

	require.Len(t, result.Employees, 1)
	require.Len(t, result.Employees[0].Records, 1)
	assert.True(t, decimal.NewFromInt(30000).Equal(result.Employees[0].Records[0].Salary))
}

func TestNormalizeWorkerLayout(t *testing.T) {
	n, err := New(models.CohortWorker, zap.NewNop())
	require.NoError(t, err)

	header := [][]string{{"WAGES"}, {}, {}, {}, {"Sl", "ID", "Dept", "Name", "F", "Days", "DOJ", "Rate", "OT", "Gross", "Mode"}}
	row := []string{"1", "512", "w", "Lata", "", "26", "45292", "500", "0", "13000", "CASH"}
	wb := &workbook.Workbook{Sheets: []workbook.Sheet{
		{Name: "January 2025_W", Rows: append(header, row)},
	}}

	result := n.Normalize(wb)
	require.Len(t, result.Employees, 1)
	emp := result.Employees[0]
	assert.Equal(t, models.CohortWorker, emp.Cohort)
	assert.Equal(t, "W", emp.Department)
	assert.True(t, emp.IsCashSalary)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), emp.DateOfJoining)
	assert.Equal(t, "JAN-25", emp.Records[0].Month)
	assert.True(t, decimal.NewFromInt(13000).Equal(emp.Records[0].Salary))
}

func TestNormalizeNilWorkbook(t *testing.T) {
	n, err := New(models.CohortStaff, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, n.Normalize(nil).Employees)
}

func TestSchemaForUnknownCohort(t *testing.T) {
	_, err := New(models.Cohort("contract"), zap.NewNop())
	assert.Error(t, err)
}
