package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bonus-service/internal/bonus"
	"bonus-service/internal/models"
)

var asOf = time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

type rec struct {
	month, dept, salary string
}

func employee(id, dept string, sentinel bool, records ...rec) *models.Employee {
	key := id
	if sentinel {
		key = "N_" + id
	}
	emp := models.NewEmployee(key, id, "Employee "+id, models.CohortStaff)
	emp.Department = dept
	emp.IsSentinel = sentinel
	emp.DateOfJoining = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		emp.AddRecord(models.MonthlyRecord{Month: r.month, Department: r.dept, Salary: dec(r.salary)})
	}
	return emp
}

func fixtureComputations() []models.BonusComputation {
	engine := bonus.NewEngine(bonus.DefaultRules(), asOf, zap.NewNop())
	return engine.Compute([]*models.Employee{
		employee("143", "S", false,
			rec{"NOV-24", "S", "10000"}, rec{"DEC-24", "SP", "12000"}, rec{"JAN-25", "S", "10000"}),
		employee("150", "S", false, rec{"NOV-24", "S", "5000"}),
		employee("N", models.SentinelDepartment, true, rec{"NOV-24", models.SentinelDepartment, "0"}),
	}, models.Lookups{})
}

func TestRegroupSlicesMultiDepartmentEmployees(t *testing.T) {
	groups := Regroup(fixtureComputations())

	require.Len(t, groups, 3)
	assert.Equal(t, "S", groups[0].Department)
	assert.Equal(t, "SP", groups[1].Department)
	assert.Equal(t, models.SentinelDepartment, groups[2].Department, "sentinel group sorts last")

	sRows := groups[0].Rows
	require.Len(t, sRows, 2)
	assert.Equal(t, "143", sRows[0].EmpID)
	assertAmount(t, "20000", sRows[0].TotalGrossSalary)
	assert.Len(t, sRows[0].MonthlyRecords, 2)
	assert.False(t, sRows[0].MonthlySalaries[1].Amount.Valid, "December belongs to SP")
	assertAmount(t, "25000", groups[0].Totals.Gross)
	assert.Equal(t, 2, groups[0].Totals.Employees)

	spRow := groups[1].Rows[0]
	assertAmount(t, "12000", spRow.TotalGrossSalary)
	assert.Equal(t, "SP", spRow.Department)

	assert.True(t, sRows[0].DepartmentScoped)
	assert.True(t, spRow.DepartmentScoped)
	assert.False(t, sRows[1].DepartmentScoped, "single-department rows are whole")
}

func TestRegroupCarriesOtherFieldsUnscoped(t *testing.T) {
	// Only gross is scoped per department; register and payouts stay whole.
	computations := fixtureComputations()
	groups := Regroup(computations)

	whole := computations[0]
	assertAmount(t, "32000", whole.TotalGrossSalary)
	for _, g := range groups[:2] {
		assertAmount(t, whole.Register.String(), g.Rows[0].Register)
		assertAmount(t, whole.FinalPayout.String(), g.Rows[0].FinalPayout)
	}
}

func TestDepartmentsFallbacks(t *testing.T) {
	assert.Equal(t, []string{"ACCOUNTS"}, Departments(models.BonusComputation{Department: "ACCOUNTS"}))
	assert.Equal(t, []string{UnassignedDepartment}, Departments(models.BonusComputation{}))
	assert.Equal(t, []string{models.SentinelDepartment},
		Departments(models.BonusComputation{IsSentinel: true, Department: "S"}))
}

func TestBuildGrandTotalsCountEachEmployeeOnce(t *testing.T) {
	computations := fixtureComputations()

	r := Build(Input{RunID: "run-1", AsOf: asOf, Rules: bonus.DefaultRules(), Computations: computations})

	assert.False(t, r.Empty)
	require.Len(t, r.Cohorts, 1)
	assert.Equal(t, models.CohortStaff, r.Cohorts[0].Cohort)
	assert.Equal(t, 3, r.Summary.GrandTotals.Employees)
	assertAmount(t, "37000", r.Summary.GrandTotals.Gross)
	require.Len(t, r.Summary.Cohorts, 1)
	assert.Len(t, r.Summary.Cohorts[0].Departments, 3)
	assertAmount(t, "37000", r.Summary.Cohorts[0].Totals.Gross)
}

func TestBuildEmptyReportIsPlaceholder(t *testing.T) {
	r := Build(Input{RunID: "run-2", AsOf: asOf, Rules: bonus.DefaultRules()})

	assert.True(t, r.Empty)
	assert.Empty(t, r.Cohorts)
	assert.NotEmpty(t, r.Columns)
	assert.Equal(t, 0, r.Summary.GrandTotals.Employees)
}

func TestMonthlyComparisonInFiscalOrder(t *testing.T) {
	hr := map[string]models.HREntry{
		"143": {EmpID: "143", Monthly: map[string]decimal.Decimal{"NOV-24": dec("9000"), "SEP-25": dec("100")}},
	}

	rows := MonthlyComparison(fixtureComputations(), hr)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"NOV-24", "DEC-24", "JAN-25", "SEP-25"},
		[]string{rows[0].Month, rows[1].Month, rows[2].Month, rows[3].Month})
	assertAmount(t, "15000", rows[0].OurTotal)
	assertAmount(t, "9000", rows[0].HRTotal)
	assertAmount(t, "6000", rows[0].Difference)
	assertAmount(t, "-100", rows[3].Difference)
}

func TestColumnsCarryAuditFormulas(t *testing.T) {
	cols := Columns(bonus.DefaultRules())
	byKey := make(map[string]Column)
	for _, c := range cols {
		byKey[c.Key] = c
	}

	assert.Equal(t, `IF({percent}=8.33,{gross},IF({percent}>8.33,ROUND({gross}*0.6,0),0))`, byKey[KeyGross2].Formula)
	assert.Equal(t, `IF({cash}="YES",0,ROUND({gross2}*8.33/100,0))`, byKey[KeyRegister].Formula)
	assert.Equal(t, "ROUND(SUM({m1}:{m12}),0)", byKey[KeyGross].Formula)
	assert.True(t, byKey[KeyGross].Scoped)
	assert.False(t, byKey["m12"].Scoped)
	assert.False(t, byKey[KeyRegister].Scoped)
	assert.Equal(t, []string{"m10", "m2", "m9"}, FormulaKeys(byKey["m12"].Formula))
	assert.Equal(t, "OCT (Est.)", byKey["m12"].Label)

	for _, c := range cols {
		for _, key := range FormulaKeys(c.Formula) {
			assert.Contains(t, byKey, key, "formula of %s references unknown column", c.Key)
		}
	}
}

func TestColumnValues(t *testing.T) {
	c := fixtureComputations()[0]
	byKey := make(map[string]Column)
	for _, col := range Columns(bonus.DefaultRules()) {
		byKey[col.Key] = col
	}

	assert.Equal(t, "143", byKey["empId"].Value(c))
	assert.Equal(t, 10000.0, byKey["m1"].Value(c))
	assert.Nil(t, byKey["m11"].Value(c))
	assert.Equal(t, "YES", byKey[KeyEligible].Value(c))
	assert.Equal(t, "NO", byKey[KeyCash].Value(c))
	assert.Equal(t, "01-01-2010", byKey["doj"].Value(c))
	assert.Nil(t, Column{}.Value(c))
}
