package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

// RowSchema binds the fields of a cohort's payroll row to fixed column positions.
type RowSchema struct {
	Cohort         models.Cohort
	SheetSuffix    string
	HeaderRows     int
	IDCol          int
	DepartmentCol  int
	NameCol        int
	JoiningCol     int
	SalaryCol      int
	PaymentModeCol int
}

var (
	StaffSchema = RowSchema{
		Cohort:         models.CohortStaff,
		SheetSuffix:    "S",
		HeaderRows:     4,
		IDCol:          1,
		DepartmentCol:  2,
		NameCol:        3,
		JoiningCol:     5,
		SalaryCol:      6,
		PaymentModeCol: 7,
	}

	WorkerSchema = RowSchema{
		Cohort:         models.CohortWorker,
		SheetSuffix:    "W",
		HeaderRows:     5,
		IDCol:          1,
		DepartmentCol:  2,
		NameCol:        3,
		JoiningCol:     6,
		SalaryCol:      9,
		PaymentModeCol: 10,
	}
)

// SchemaFor returns the row layout of a cohort.
func SchemaFor(cohort models.Cohort) (RowSchema, error) {
	switch cohort {
	case models.CohortStaff:
		return StaffSchema, nil
	case models.CohortWorker:
		return WorkerSchema, nil
	default:
		return RowSchema{}, fmt.Errorf("unknown cohort %q", cohort)
	}
}

// payrollRow is one data row read through a RowSchema, not yet validated.
type payrollRow struct {
	EmpID       string
	Department  string
	Name        string
	JoiningText string
	Salary      decimal.Decimal
	SalaryOK    bool
	IsCash      bool
}

func (s RowSchema) extract(row []string) payrollRow {
	salary, ok := workbook.ParseAmount(workbook.Value(row, s.SalaryCol))
	return payrollRow{
		EmpID:       workbook.NormalizeID(workbook.Value(row, s.IDCol)),
		Department:  strings.ToUpper(workbook.Value(row, s.DepartmentCol)),
		Name:        workbook.Value(row, s.NameCol),
		JoiningText: workbook.Value(row, s.JoiningCol),
		Salary:      salary,
		SalaryOK:    ok,
		IsCash:      strings.Contains(strings.ToUpper(workbook.Value(row, s.PaymentModeCol)), "CASH"),
	}
}

// MatchesSheet reports whether a sheet name belongs to the cohort: it must
// contain a separator and its last token must be the cohort suffix.
func (s RowSchema) MatchesSheet(name string) bool {
	tokens := strings.FieldsFunc(strings.TrimSpace(name), isSheetSeparator)
	if len(tokens) < 2 {
		return false
	}
	return strings.EqualFold(tokens[len(tokens)-1], s.SheetSuffix)
}

func isSheetSeparator(r rune) bool {
	return r == ' ' || r == '-' || r == '_'
}
