package models

import "github.com/shopspring/decimal"

// HREntry is one employee row of the externally produced HR ledger.
type HREntry struct {
	EmpID   string                     `json:"emp_id"`
	Name    string                     `json:"name"`
	Fields  FieldSet                   `json:"fields"`
	Monthly map[string]decimal.Decimal `json:"monthly,omitempty"`
}

// FieldSet holds the seven amounts compared during reconciliation.
type FieldSet struct {
	GrossSalary decimal.Decimal `json:"gross_salary"`
	Gross2      decimal.Decimal `json:"gross2"`
	Register    decimal.Decimal `json:"register"`
	Actual      decimal.Decimal `json:"actual"`
	Unpaid      decimal.Decimal `json:"unpaid"`
	FinalPayout decimal.Decimal `json:"final_payout"`
	Reim        decimal.Decimal `json:"reim"`
}

// FieldSetFrom extracts the compared amounts from a computation.
func FieldSetFrom(c BonusComputation) FieldSet {
	return FieldSet{
		GrossSalary: c.TotalGrossSalary,
		Gross2:      c.Gross2,
		Register:    c.Register,
		Actual:      c.Actual,
		Unpaid:      c.Unpaid,
		FinalPayout: c.FinalPayout,
		Reim:        c.Reim,
	}
}

func (f FieldSet) Sub(o FieldSet) FieldSet {
	return FieldSet{
		GrossSalary: f.GrossSalary.Sub(o.GrossSalary),
		Gross2:      f.Gross2.Sub(o.Gross2),
		Register:    f.Register.Sub(o.Register),
		Actual:      f.Actual.Sub(o.Actual),
		Unpaid:      f.Unpaid.Sub(o.Unpaid),
		FinalPayout: f.FinalPayout.Sub(o.FinalPayout),
		Reim:        f.Reim.Sub(o.Reim),
	}
}

func (f FieldSet) Add(o FieldSet) FieldSet {
	return FieldSet{
		GrossSalary: f.GrossSalary.Add(o.GrossSalary),
		Gross2:      f.Gross2.Add(o.Gross2),
		Register:    f.Register.Add(o.Register),
		Actual:      f.Actual.Add(o.Actual),
		Unpaid:      f.Unpaid.Add(o.Unpaid),
		FinalPayout: f.FinalPayout.Add(o.FinalPayout),
		Reim:        f.Reim.Add(o.Reim),
	}
}

// Values returns the amounts in a fixed field order.
func (f FieldSet) Values() []decimal.Decimal {
	return []decimal.Decimal{
		f.GrossSalary, f.Gross2, f.Register, f.Actual, f.Unpaid, f.FinalPayout, f.Reim,
	}
}

// ReconciledFields names the FieldSet entries in Values() order.
var ReconciledFields = []string{
	"gross_salary", "gross2", "register", "actual", "unpaid", "final_payout", "reim",
}

// ReconciliationRecord pairs system and HR amounts for one employee
type ReconciliationRecord struct {
	EmpID            string    `json:"emp_id"`
	Name             string    `json:"name"`
	Department       string    `json:"department"`
	Cohort           Cohort    `json:"cohort"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	System           FieldSet  `json:"system"`
	HR               *FieldSet `json:"hr,omitempty"`
	Diff             *FieldSet `json:"diff,omitempty"`
	MismatchedFields []string  `json:"mismatched_fields,omitempty"`
}

// ReconciliationSummary aggregates the outcome of one reconciliation pass
type ReconciliationSummary struct {
	Total        int      `json:"total"`
	Matched      int      `json:"matched"`
	Mismatched   int      `json:"mismatched"`
	Missing      int      `json:"missing"`
	HROnly       []string `json:"hr_only,omitempty"`
	SystemTotals FieldSet `json:"system_totals"`
	HRTotals     FieldSet `json:"hr_totals"`
}

// ReconciliationStatus constants
const (
	StatusMatch    = "MATCH"
	StatusMismatch = "MISMATCH"
	StatusMissing  = "MISSING"
)

// Source constants
const (
	SourceBoth       = "both"
	SourceSystemOnly = "system_only"
)
