package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySalary is one slot of the twelve-month bonus basis. Amount is null
// when the timeline has no positive salary for the month.
type MonthlySalary struct {
	Month     string              `json:"month"`
	Amount    decimal.NullDecimal `json:"amount"`
	Estimated bool                `json:"estimated,omitempty"`
}

// Value returns the salary or zero when absent.
func (m MonthlySalary) Value() decimal.Decimal {
	if !m.Amount.Valid {
		return decimal.Zero
	}
	return m.Amount.Decimal
}

// BonusComputation is the derived bonus figure set for one employee.
type BonusComputation struct {
	EmpID            string          `json:"emp_id"`
	Name             string          `json:"name"`
	Department       string          `json:"department"`
	Cohort           Cohort          `json:"cohort"`
	DateOfJoining    time.Time       `json:"date_of_joining"`
	IsCashSalary     bool            `json:"is_cash_salary"`
	IsSentinel       bool            `json:"is_sentinel"`
	ServiceMonths    int             `json:"service_months"`
	MonthlySalaries  []MonthlySalary `json:"monthly_salaries"`
	MonthlyRecords   []MonthlyRecord `json:"monthly_records"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	BonusPercent     decimal.Decimal `json:"bonus_percent"`
	Gross2           decimal.Decimal `json:"gross2"`
	Register         decimal.Decimal `json:"register"`
	AlreadyPaid      decimal.Decimal `json:"already_paid"`
	Unpaid           decimal.Decimal `json:"unpaid"`
	AfterV           decimal.Decimal `json:"after_v"`
	IsEligible       bool            `json:"is_eligible"`
	Actual           decimal.Decimal `json:"actual"`
	Reim             decimal.Decimal `json:"reim"`
	Loan             decimal.Decimal `json:"loan"`
	FinalPayout      decimal.Decimal `json:"final_payout"`

	// DepartmentScoped marks a department slice of an employee that spans
	// several departments. Only its salaries and gross are scoped.
	DepartmentScoped bool `json:"department_scoped,omitempty"`
}

// HasLedgerIdentity reports whether the computation can be matched by id.
func (c BonusComputation) HasLedgerIdentity() bool {
	return hasLedgerIdentity(c.EmpID, c.IsSentinel)
}

// RoundMoney rounds an amount to the nearest whole currency unit.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
