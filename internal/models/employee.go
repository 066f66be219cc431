package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cohort identifies the employee population a workbook belongs to.
type Cohort string

const (
	CohortStaff  Cohort = "staff"
	CohortWorker Cohort = "worker"
)

// SentinelDepartment groups rows deliberately marked "N".
const SentinelDepartment = "N"

// MonthlyRecord is one employee-month extracted from a payroll sheet.
type MonthlyRecord struct {
	Month      string          `json:"month"`
	Salary     decimal.Decimal `json:"salary"`
	Department string          `json:"department"`
}

// Employee is the per-employee salary timeline of one cohort.
type Employee struct {
	Key           string          `json:"key"`
	EmpID         string          `json:"emp_id"`
	Name          string          `json:"name"`
	Department    string          `json:"department"`
	DateOfJoining time.Time       `json:"date_of_joining"`
	IsCashSalary  bool            `json:"is_cash_salary"`
	IsSentinel    bool            `json:"is_sentinel"`
	Cohort        Cohort          `json:"cohort"`
	Records       []MonthlyRecord `json:"records"`

	months map[string]int
}

func NewEmployee(key, empID, name string, cohort Cohort) *Employee {
	return &Employee{
		Key:    key,
		EmpID:  empID,
		Name:   name,
		Cohort: cohort,
		months: make(map[string]int),
	}
}

// AddRecord merges a record into the timeline keyed by month. The first
// record for a month is kept unless it carries a zero salary and the new one
// does not. Reports whether the timeline changed.
func (e *Employee) AddRecord(rec MonthlyRecord) bool {
	if e.months == nil {
		e.months = make(map[string]int, len(e.Records))
		for i, r := range e.Records {
			e.months[r.Month] = i
		}
	}

	idx, exists := e.months[rec.Month]
	if !exists {
		e.months[rec.Month] = len(e.Records)
		e.Records = append(e.Records, rec)
		return true
	}

	if e.Records[idx].Salary.IsZero() && rec.Salary.IsPositive() {
		e.Records[idx] = rec
		return true
	}
	return false
}

// Record returns the timeline entry for a canonical month key.
func (e *Employee) Record(month string) (MonthlyRecord, bool) {
	for _, r := range e.Records {
		if r.Month == month {
			return r, true
		}
	}
	return MonthlyRecord{}, false
}

// HasJoiningDate reports whether the employee carries a usable joining date.
func (e *Employee) HasJoiningDate() bool {
	return !e.DateOfJoining.IsZero()
}

// HasLedgerIdentity reports whether the employee id can key the side ledgers
// and the HR ledger. Sentinel rows carrying only the bare marker share it.
func (e *Employee) HasLedgerIdentity() bool {
	return hasLedgerIdentity(e.EmpID, e.IsSentinel)
}

func hasLedgerIdentity(empID string, sentinel bool) bool {
	return !sentinel || !strings.EqualFold(strings.TrimSpace(empID), SentinelDepartment)
}

// DueVoucherEntry accumulates already-paid and unpaid vouchers for one id.
type DueVoucherEntry struct {
	AlreadyPaid decimal.Decimal `json:"already_paid"`
	Unpaid      decimal.Decimal `json:"unpaid"`
	Dept        string          `json:"dept"`
}

// Lookups are the read-only side-ledger maps threaded into the rule engine.
type Lookups struct {
	DueVouchers map[string]DueVoucherEntry
	Loans       map[string]decimal.Decimal
	Percentages map[string]decimal.Decimal
}

func (l Lookups) DueVoucher(empID string) DueVoucherEntry {
	if l.DueVouchers == nil {
		return DueVoucherEntry{}
	}
	return l.DueVouchers[empID]
}

func (l Lookups) Loan(empID string) decimal.Decimal {
	if l.Loans == nil {
		return decimal.Zero
	}
	return l.Loans[empID]
}

func (l Lookups) Percentage(empID string) (decimal.Decimal, bool) {
	if l.Percentages == nil {
		return decimal.Zero, false
	}
	p, ok := l.Percentages[empID]
	return p, ok
}
