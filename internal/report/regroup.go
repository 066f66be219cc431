package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
)

// UnassignedDepartment groups employees that carry no department tag at all.
const UnassignedDepartment = "UNASSIGNED"

// Totals sums the monetary columns of a set of computations.
type Totals struct {
	Employees   int             `json:"employees"`
	Gross       decimal.Decimal `json:"gross"`
	Gross2      decimal.Decimal `json:"gross2"`
	Register    decimal.Decimal `json:"register"`
	AlreadyPaid decimal.Decimal `json:"already_paid"`
	Unpaid      decimal.Decimal `json:"unpaid"`
	AfterV      decimal.Decimal `json:"after_v"`
	Actual      decimal.Decimal `json:"actual"`
	Reim        decimal.Decimal `json:"reim"`
	Loan        decimal.Decimal `json:"loan"`
	FinalPayout decimal.Decimal `json:"final_payout"`
}

func (t *Totals) Add(c models.BonusComputation) {
	t.Employees++
	t.Gross = t.Gross.Add(c.TotalGrossSalary)
	t.Gross2 = t.Gross2.Add(c.Gross2)
	t.Register = t.Register.Add(c.Register)
	t.AlreadyPaid = t.AlreadyPaid.Add(c.AlreadyPaid)
	t.Unpaid = t.Unpaid.Add(c.Unpaid)
	t.AfterV = t.AfterV.Add(c.AfterV)
	t.Actual = t.Actual.Add(c.Actual)
	t.Reim = t.Reim.Add(c.Reim)
	t.Loan = t.Loan.Add(c.Loan)
	t.FinalPayout = t.FinalPayout.Add(c.FinalPayout)
}

func totalsOf(computations []models.BonusComputation) Totals {
	var t Totals
	for _, c := range computations {
		t.Add(c)
	}
	return t
}

// DepartmentGroup is the set of department-scoped rows of one department.
type DepartmentGroup struct {
	Department string                    `json:"department"`
	Rows       []models.BonusComputation `json:"rows"`
	Totals     Totals                    `json:"totals"`
}

// Departments returns the departments a computation touches, in order of
// first appearance across its monthly records.
func Departments(c models.BonusComputation) []string {
	if c.IsSentinel {
		return []string{models.SentinelDepartment}
	}

	var depts []string
	seen := make(map[string]bool)
	for _, rec := range c.MonthlyRecords {
		if rec.Department == "" || seen[rec.Department] {
			continue
		}
		seen[rec.Department] = true
		depts = append(depts, rec.Department)
	}
	if len(depts) > 0 {
		return depts
	}
	if c.Department != "" {
		return []string{c.Department}
	}
	return []string{UnassignedDepartment}
}

// Slice returns the department-scoped copy of a computation. Monthly records
// and salaries are filtered to the department and gross is recomputed from
// them; every other derived field is carried over unscoped. A computation
// that touches a single department is returned whole.
func Slice(c models.BonusComputation, department string) models.BonusComputation {
	scoped := c
	scoped.Department = department

	depts := Departments(c)
	if len(depts) == 1 && depts[0] == department {
		return scoped
	}

	scoped.DepartmentScoped = true
	scoped.MonthlyRecords = nil
	inDept := make(map[string]bool)
	for _, rec := range c.MonthlyRecords {
		if rec.Department == department {
			scoped.MonthlyRecords = append(scoped.MonthlyRecords, rec)
			inDept[rec.Month] = true
		}
	}

	gross := decimal.Zero
	scoped.MonthlySalaries = make([]models.MonthlySalary, len(c.MonthlySalaries))
	for i, slot := range c.MonthlySalaries {
		scoped.MonthlySalaries[i] = models.MonthlySalary{Month: slot.Month, Estimated: slot.Estimated}
		if slot.Estimated || !slot.Amount.Valid {
			continue
		}
		if sourceInDept(c.MonthlyRecords, slot, inDept) {
			scoped.MonthlySalaries[i].Amount = slot.Amount
			gross = gross.Add(slot.Amount.Decimal)
		}
	}
	scoped.TotalGrossSalary = models.RoundMoney(gross)
	return scoped
}

// sourceInDept reports whether the record a salary slot was read from belongs
// to the department.
func sourceInDept(records []models.MonthlyRecord, slot models.MonthlySalary, inDept map[string]bool) bool {
	for _, rec := range records {
		if fiscal.CodeOf(rec.Month) == slot.Month && rec.Salary.IsPositive() {
			return inDept[rec.Month]
		}
	}
	return false
}

// Regroup slices every computation by the departments it touches and returns
// the groups sorted by department with the sentinel group last.
func Regroup(computations []models.BonusComputation) []DepartmentGroup {
	byDept := make(map[string]*DepartmentGroup)
	var order []string

	for _, c := range computations {
		for _, dept := range Departments(c) {
			group, ok := byDept[dept]
			if !ok {
				group = &DepartmentGroup{Department: dept}
				byDept[dept] = group
				order = append(order, dept)
			}
			group.Rows = append(group.Rows, Slice(c, dept))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return departmentLess(order[i], order[j])
	})

	groups := make([]DepartmentGroup, 0, len(order))
	for _, dept := range order {
		group := byDept[dept]
		group.Totals = totalsOf(group.Rows)
		groups = append(groups, *group)
	}
	return groups
}

func departmentLess(a, b string) bool {
	if a == models.SentinelDepartment {
		return false
	}
	if b == models.SentinelDepartment {
		return true
	}
	return a < b
}
