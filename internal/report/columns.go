package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bonus-service/internal/bonus"
	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
)

// Column describes one report column. Formula, when set, is a spreadsheet
// formula template whose {key} tokens name other columns of the same row.
// Scoped formulas hold on department slices as well as on whole rows.
type Column struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Formula string `json:"formula,omitempty"`
	Scoped  bool   `json:"scoped,omitempty"`

	value func(models.BonusComputation) interface{}
}

// Value extracts the column's cell value from a computation.
func (c Column) Value(comp models.BonusComputation) interface{} {
	if c.value == nil {
		return nil
	}
	return c.value(comp)
}

// Column keys referenced by formulas
const (
	KeyGross       = "gross"
	KeyPercent     = "percent"
	KeyGross2      = "gross2"
	KeyRegister    = "register"
	KeyAlreadyPaid = "alreadyPaid"
	KeyUnpaid      = "unpaid"
	KeyAfterV      = "afterV"
	KeyEligible    = "eligible"
	KeyActual      = "actual"
	KeyReim        = "reim"
	KeyLoan        = "loan"
	KeyFinalPayout = "finalPayout"
	KeyCash        = "cash"
)

// MonthKey returns the column key of the n-th (1-based) bonus month.
func MonthKey(n int) string {
	return fmt.Sprintf("m%d", n)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func amount(d decimal.Decimal) interface{} {
	f, _ := d.Float64()
	return f
}

// Columns lists the report columns with the formulas an auditor needs to
// reproduce the derived fields. Rule constants are substituted from rules.
func Columns(rules bonus.Rules) []Column {
	statutory := rules.StatutoryPercent.String()
	ratio := rules.CappedBasisRatio.String()

	cols := []Column{
		{Key: "empId", Label: "Emp ID", value: func(c models.BonusComputation) interface{} { return c.EmpID }},
		{Key: "name", Label: "Name", value: func(c models.BonusComputation) interface{} { return c.Name }},
		{Key: "department", Label: "Dept", value: func(c models.BonusComputation) interface{} { return c.Department }},
		{Key: "doj", Label: "DOJ", value: func(c models.BonusComputation) interface{} {
			if c.IsSentinel {
				return models.SentinelDepartment
			}
			return c.DateOfJoining.Format("02-01-2006")
		}},
		{Key: "serviceMonths", Label: "Service (Months)", value: func(c models.BonusComputation) interface{} { return c.ServiceMonths }},
	}

	months := append(append([]string(nil), fiscal.FiscalMonths...), fiscal.EstimatedMonth)
	for i, code := range months {
		idx := i
		col := Column{Key: MonthKey(i + 1), Label: code, value: func(c models.BonusComputation) interface{} {
			if idx >= len(c.MonthlySalaries) || !c.MonthlySalaries[idx].Amount.Valid {
				return nil
			}
			return amount(c.MonthlySalaries[idx].Amount.Decimal)
		}}
		if code == fiscal.EstimatedMonth {
			col.Label = code + " (Est.)"
			col.Formula = fmt.Sprintf(`IF({%s}>=1,IFERROR(ROUND(AVERAGEIF({%s}:{%s},">0"),0),0),0)`,
				MonthKey(fiscal.AugustIndex+1), MonthKey(2), MonthKey(fiscal.AugustIndex))
		}
		cols = append(cols, col)
	}

	cols = append(cols,
		Column{Key: KeyGross, Label: "Total Gross Salary",
			Formula: fmt.Sprintf("ROUND(SUM({%s}:{%s}),0)", MonthKey(1), MonthKey(len(months))),
			Scoped:  true,
			value:   func(c models.BonusComputation) interface{} { return amount(c.TotalGrossSalary) }},
		Column{Key: KeyPercent, Label: "Bonus %",
			value: func(c models.BonusComputation) interface{} { return amount(c.BonusPercent) }},
		Column{Key: KeyGross2, Label: "Gross 2",
			Formula: fmt.Sprintf(`IF({percent}=%s,{gross},IF({percent}>%s,ROUND({gross}*%s,0),0))`, statutory, statutory, ratio),
			value:   func(c models.BonusComputation) interface{} { return amount(c.Gross2) }},
		Column{Key: KeyRegister, Label: "Register",
			Formula: fmt.Sprintf(`IF({cash}="YES",0,ROUND({gross2}*%s/100,0))`, statutory),
			value:   func(c models.BonusComputation) interface{} { return amount(c.Register) }},
		Column{Key: KeyAlreadyPaid, Label: "Already Paid",
			value: func(c models.BonusComputation) interface{} { return amount(c.AlreadyPaid) }},
		Column{Key: KeyUnpaid, Label: "Unpaid",
			value: func(c models.BonusComputation) interface{} { return amount(c.Unpaid) }},
		Column{Key: KeyAfterV, Label: "After V",
			Formula: "{register}-({alreadyPaid}+{unpaid})",
			value:   func(c models.BonusComputation) interface{} { return amount(c.AfterV) }},
		Column{Key: KeyEligible, Label: "Eligible",
			value: func(c models.BonusComputation) interface{} { return yesNo(c.IsEligible) }},
		Column{Key: KeyActual, Label: "Actual",
			Formula: `IF({eligible}="YES",{afterV},0)`,
			value:   func(c models.BonusComputation) interface{} { return amount(c.Actual) }},
		Column{Key: KeyReim, Label: "Reim",
			Formula: "{afterV}-{actual}",
			value:   func(c models.BonusComputation) interface{} { return amount(c.Reim) }},
		Column{Key: KeyLoan, Label: "Loan",
			value: func(c models.BonusComputation) interface{} { return amount(c.Loan) }},
		Column{Key: KeyFinalPayout, Label: "Final Payout",
			Formula: "{register}-({alreadyPaid}+{unpaid})",
			value:   func(c models.BonusComputation) interface{} { return amount(c.FinalPayout) }},
		Column{Key: KeyCash, Label: "Cash",
			value: func(c models.BonusComputation) interface{} { return yesNo(c.IsCashSalary) }},
	)
	return cols
}

// FormulaKeys returns the column keys referenced by a formula template.
func FormulaKeys(formula string) []string {
	var keys []string
	for {
		start := strings.Index(formula, "{")
		if start < 0 {
			return keys
		}
		end := strings.Index(formula[start:], "}")
		if end < 0 {
			return keys
		}
		keys = append(keys, formula[start+1:start+end])
		formula = formula[start+end+1:]
	}
}
