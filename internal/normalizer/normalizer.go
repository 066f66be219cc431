package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

// Skip reasons
const (
	SkipMissingIdentity = "missing id or name"
	SkipTotalRow        = "total row"
	SkipJoiningNA       = "joining date not applicable"
	SkipJoiningUnparsed = "joining date unparseable"
	SkipNonPositivePay  = "salary missing or not positive"
	sentinelKeyPrefix   = "N_"
	sentinelMarker      = "N"
	totalMarker         = "total"
)

// Stats counts what a normalization pass read and dropped.
type Stats struct {
	SheetsRead    int            `json:"sheets_read"`
	SheetsIgnored int            `json:"sheets_ignored"`
	RowsAccepted  int            `json:"rows_accepted"`
	RowsSkipped   map[string]int `json:"rows_skipped"`
}

// Result is the canonical per-employee timeline set of one cohort.
type Result struct {
	Cohort    models.Cohort      `json:"cohort"`
	Employees []*models.Employee `json:"employees"`
	Stats     Stats              `json:"stats"`
}

type Normalizer struct {
	schema RowSchema
	logger *zap.Logger
}

func New(cohort models.Cohort, logger *zap.Logger) (*Normalizer, error) {
	schema, err := SchemaFor(cohort)
	if err != nil {
		return nil, err
	}
	return NewWithSchema(schema, logger), nil
}

func NewWithSchema(schema RowSchema, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		schema: schema,
		logger: logger.With(zap.String("component", "normalizer"), zap.String("cohort", string(schema.Cohort))),
	}
}

// Normalize merges every cohort sheet of wb into employee timelines. Sheets
// are processed in workbook order; employees keep first-appearance order.
func (n *Normalizer) Normalize(wb *workbook.Workbook) Result {
	result := Result{
		Cohort: n.schema.Cohort,
		Stats:  Stats{RowsSkipped: make(map[string]int)},
	}
	if wb == nil {
		return result
	}

	byKey := make(map[string]*models.Employee)

	for _, sheet := range wb.Sheets {
		if !n.schema.MatchesSheet(sheet.Name) {
			result.Stats.SheetsIgnored++
			n.logger.Debug("Ignoring sheet", zap.String("sheet", sheet.Name))
			continue
		}
		result.Stats.SheetsRead++

		month := fiscal.MonthKey(sheet.Name)
		for i, row := range sheet.Rows {
			if i < n.schema.HeaderRows {
				continue
			}

			reason := n.mergeRow(month, row, byKey, &result.Employees)
			if reason != "" {
				result.Stats.RowsSkipped[reason]++
				n.logger.Debug("Skipping row",
					zap.String("sheet", sheet.Name),
					zap.Int("row", i+1),
					zap.String("reason", reason))
				continue
			}
			result.Stats.RowsAccepted++
		}
	}

	n.logger.Info("Normalized cohort",
		zap.Int("employees", len(result.Employees)),
		zap.Int("sheets", result.Stats.SheetsRead),
		zap.Int("rows", result.Stats.RowsAccepted))

	return result
}

// mergeRow validates one data row and folds it into its employee's timeline.
// It returns the skip reason, or "" when the row was accepted.
func (n *Normalizer) mergeRow(month string, raw []string, byKey map[string]*models.Employee, order *[]*models.Employee) string {
	row := n.schema.extract(raw)

	if row.EmpID == "" || row.Name == "" {
		return SkipMissingIdentity
	}
	if strings.EqualFold(row.EmpID, totalMarker) || strings.EqualFold(row.Name, totalMarker) {
		return SkipTotalRow
	}

	var (
		key        string
		department = row.Department
		joined     = SentinelJoiningDate
		salary     = row.Salary
		sentinel   = isSentinel(row)
	)

	if sentinel {
		key = sentinelKeyPrefix + row.Name
		department = models.SentinelDepartment
		if !row.SalaryOK || salary.IsNegative() {
			salary = decimal.Zero
		}
	} else {
		if isNotApplicable(row.JoiningText) {
			return SkipJoiningNA
		}
		parsed, ok := parseJoiningDate(row.JoiningText)
		if !ok {
			return SkipJoiningUnparsed
		}
		if !row.SalaryOK || !salary.IsPositive() {
			return SkipNonPositivePay
		}
		key = row.EmpID
		joined = parsed
	}

	emp, exists := byKey[key]
	if !exists {
		emp = models.NewEmployee(key, row.EmpID, row.Name, n.schema.Cohort)
		byKey[key] = emp
		*order = append(*order, emp)
	}

	emp.Department = department
	emp.IsCashSalary = row.IsCash
	emp.IsSentinel = emp.IsSentinel || sentinel
	if !emp.HasJoiningDate() || !sentinel {
		emp.DateOfJoining = joined
	}

	emp.AddRecord(models.MonthlyRecord{
		Month:      month,
		Salary:     salary,
		Department: department,
	})
	return ""
}

func isSentinel(row payrollRow) bool {
	id := strings.ToUpper(row.EmpID)
	return id == sentinelMarker ||
		strings.HasPrefix(id, sentinelMarker) ||
		strings.EqualFold(row.JoiningText, sentinelMarker)
}
