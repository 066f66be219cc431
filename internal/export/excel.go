package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bonus-service/internal/models"
	"bonus-service/internal/report"
)

// Sheet names
const (
	SummarySheet        = "Summary"
	ReconciliationSheet = "Reconciliation"
	ComparisonSheet     = "Monthly Comparison"
)

var formulaToken = regexp.MustCompile(`\{([A-Za-z0-9]+)\}`)

// WriteReport renders the report as an xlsx workbook in memory.
func WriteReport(r *report.Report) (*bytes.Buffer, error) {
	f, err := NewWorkbook(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	return buf, nil
}

// SaveReport renders the report to an xlsx file at path.
func SaveReport(r *report.Report, path string) error {
	f, err := NewWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}

// NewWorkbook lays the report out as one sheet per cohort followed by the
// summary, reconciliation and monthly comparison sheets. Derived cells carry
// both the computed value and the formula that reproduces it. On department
// slices only scoped columns keep their formula; the unscoped derived cells
// are written as plain values.
func NewWorkbook(r *report.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &sheetWriter{f: f, first: true}

	if r.Empty {
		if err := w.addSheet(SummarySheet); err != nil {
			return nil, err
		}
		if err := w.row(SummarySheet, 1, []interface{}{"No bonus computations were produced for this run."}); err != nil {
			return nil, err
		}
		return f, nil
	}

	for _, section := range r.Cohorts {
		if err := w.writeCohort(section, r.Columns); err != nil {
			return nil, err
		}
	}
	if err := w.writeSummary(r.Summary); err != nil {
		return nil, err
	}
	if err := w.writeReconciliation(r.Reconciliation, r.ReconciliationSummary); err != nil {
		return nil, err
	}
	if err := w.writeComparison(r.Comparison); err != nil {
		return nil, err
	}
	return f, nil
}

type sheetWriter struct {
	f     *excelize.File
	first bool
}

func (w *sheetWriter) addSheet(name string) error {
	if w.first {
		w.first = false
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
		return nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

func (w *sheetWriter) row(sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func cohortSheetName(c models.Cohort) string {
	switch c {
	case models.CohortStaff:
		return "Staff"
	case models.CohortWorker:
		return "Worker"
	default:
		return string(c)
	}
}

func (w *sheetWriter) writeCohort(section report.CohortSection, columns []report.Column) error {
	sheet := cohortSheetName(section.Cohort)
	if err := w.addSheet(sheet); err != nil {
		return err
	}

	letters := make(map[string]string, len(columns))
	header := []interface{}{"Sl"}
	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		letters[col.Key] = name
		header = append(header, col.Label)
	}
	if err := w.row(sheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	serial := 0
	for _, group := range section.Groups {
		if err := w.row(sheet, rowNum, []interface{}{"Department: " + group.Department}); err != nil {
			return err
		}
		rowNum++

		for _, comp := range group.Rows {
			serial++
			values := []interface{}{serial}
			for _, col := range columns {
				values = append(values, col.Value(comp))
			}
			if err := w.row(sheet, rowNum, values); err != nil {
				return err
			}
			for i, col := range columns {
				if col.Formula == "" || (comp.DepartmentScoped && !col.Scoped) {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(i+2, rowNum)
				if err != nil {
					return err
				}
				if err := w.f.SetCellFormula(sheet, cell, bindFormula(col.Formula, letters, rowNum)); err != nil {
					return fmt.Errorf("failed to set formula in %s!%s: %w", sheet, cell, err)
				}
			}
			rowNum++
		}

		if err := w.writeGroupTotals(sheet, rowNum, group, letters); err != nil {
			return err
		}
		rowNum += 2
	}
	return nil
}

func (w *sheetWriter) writeGroupTotals(sheet string, rowNum int, group report.DepartmentGroup, letters map[string]string) error {
	totals := map[string]decimal.Decimal{
		report.KeyGross:       group.Totals.Gross,
		report.KeyGross2:      group.Totals.Gross2,
		report.KeyRegister:    group.Totals.Register,
		report.KeyAlreadyPaid: group.Totals.AlreadyPaid,
		report.KeyUnpaid:      group.Totals.Unpaid,
		report.KeyAfterV:      group.Totals.AfterV,
		report.KeyActual:      group.Totals.Actual,
		report.KeyReim:        group.Totals.Reim,
		report.KeyLoan:        group.Totals.Loan,
		report.KeyFinalPayout: group.Totals.FinalPayout,
	}

	if err := w.f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), "Total "+group.Department); err != nil {
		return err
	}
	for key, amount := range totals {
		letter, ok := letters[key]
		if !ok {
			continue
		}
		if err := w.f.SetCellValue(sheet, fmt.Sprintf("%s%d", letter, rowNum), toFloat(amount)); err != nil {
			return err
		}
	}
	return nil
}

// bindFormula replaces {key} tokens with the cell of that column on rowNum.
func bindFormula(formula string, letters map[string]string, rowNum int) string {
	return formulaToken.ReplaceAllStringFunc(formula, func(tok string) string {
		key := formulaToken.FindStringSubmatch(tok)[1]
		letter, ok := letters[key]
		if !ok {
			return tok
		}
		return fmt.Sprintf("%s%d", letter, rowNum)
	})
}

func totalsRow(label string, t report.Totals) []interface{} {
	return []interface{}{
		label, t.Employees,
		toFloat(t.Gross), toFloat(t.Gross2), toFloat(t.Register), toFloat(t.AlreadyPaid), toFloat(t.Unpaid),
		toFloat(t.AfterV), toFloat(t.Actual), toFloat(t.Reim), toFloat(t.Loan), toFloat(t.FinalPayout),
	}
}

func (w *sheetWriter) writeSummary(s report.Summary) error {
	if err := w.addSheet(SummarySheet); err != nil {
		return err
	}

	header := []interface{}{
		"Cohort", "Department", "Employees", "Gross", "Gross 2", "Register", "Already Paid", "Unpaid",
		"After V", "Actual", "Reim", "Loan", "Final Payout",
	}
	if err := w.row(SummarySheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	for _, cs := range s.Cohorts {
		for _, d := range cs.Departments {
			if err := w.row(SummarySheet, rowNum, append([]interface{}{cohortSheetName(cs.Cohort)}, totalsRow(d.Department, d.Totals)...)); err != nil {
				return err
			}
			rowNum++
		}
		if err := w.row(SummarySheet, rowNum, append([]interface{}{cohortSheetName(cs.Cohort)}, totalsRow("Cohort Total", cs.Totals)...)); err != nil {
			return err
		}
		rowNum += 2
	}
	return w.row(SummarySheet, rowNum, append([]interface{}{"All"}, totalsRow("Grand Total", s.GrandTotals)...))
}

func (w *sheetWriter) writeReconciliation(records []models.ReconciliationRecord, summary models.ReconciliationSummary) error {
	if err := w.addSheet(ReconciliationSheet); err != nil {
		return err
	}

	header := []interface{}{"Emp ID", "Name", "Dept", "Cohort", "Status", "Source"}
	for _, field := range models.ReconciledFields {
		header = append(header, field+" (system)", field+" (hr)", field+" (diff)")
	}
	header = append(header, "Mismatched Fields")
	if err := w.row(ReconciliationSheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	for _, rec := range records {
		values := []interface{}{rec.EmpID, rec.Name, rec.Department, string(rec.Cohort), rec.Status, rec.Source}
		system := rec.System.Values()
		for i := range models.ReconciledFields {
			values = append(values, toFloat(system[i]))
			if rec.HR == nil || rec.Diff == nil {
				values = append(values, nil, nil)
				continue
			}
			values = append(values, toFloat(rec.HR.Values()[i]), toFloat(rec.Diff.Values()[i]))
		}
		values = append(values, strings.Join(rec.MismatchedFields, ", "))
		if err := w.row(ReconciliationSheet, rowNum, values); err != nil {
			return err
		}
		rowNum++
	}

	rowNum++
	counts := [][]interface{}{
		{"Total", summary.Total},
		{models.StatusMatch, summary.Matched},
		{models.StatusMismatch, summary.Mismatched},
		{models.StatusMissing, summary.Missing},
		{"HR only", strings.Join(summary.HROnly, ", ")},
	}
	for _, c := range counts {
		if err := w.row(ReconciliationSheet, rowNum, c); err != nil {
			return err
		}
		rowNum++
	}
	return nil
}

func (w *sheetWriter) writeComparison(rows []report.MonthComparison) error {
	if err := w.addSheet(ComparisonSheet); err != nil {
		return err
	}
	if err := w.row(ComparisonSheet, 1, []interface{}{"Month", "Our Total", "HR Total", "Difference"}); err != nil {
		return err
	}
	for i, r := range rows {
		rowNum := i + 2
		values := []interface{}{r.Month, toFloat(r.OurTotal), toFloat(r.HRTotal), toFloat(r.Difference)}
		if err := w.row(ComparisonSheet, rowNum, values); err != nil {
			return err
		}
		if err := w.f.SetCellFormula(ComparisonSheet, fmt.Sprintf("D%d", rowNum), fmt.Sprintf("B%d-C%d", rowNum, rowNum)); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
