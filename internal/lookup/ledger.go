package lookup

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

// headerScanRows bounds the header search at the top of each ledger sheet.
const headerScanRows = 15

var idHeaderAliases = []string{
	"id", "emp id", "employee id", "emp code", "employee code", "code", "emp no", "employee no", "e code",
}

// Builder parses the side ledgers into id-keyed maps. A nil or malformed
// workbook yields an empty map, never an error.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.With(zap.String("component", "lookup"))}
}

// Build parses the three rule-engine ledgers. Any of them may be nil.
func (b *Builder) Build(dueVouchers, loans, percentages *workbook.Workbook) models.Lookups {
	return models.Lookups{
		DueVouchers: b.DueVouchers(dueVouchers),
		Loans:       b.Loans(loans),
		Percentages: b.Percentages(percentages),
	}
}

// dataRows locates the header of a ledger sheet and returns it with the rows
// below it. Without a recognizable header the first row is the header.
func dataRows(sheet workbook.Sheet) ([]string, [][]string) {
	idx := workbook.FindHeaderRow(sheet.Rows, headerScanRows, idHeaderAliases...)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sheet.Rows) {
		return nil, nil
	}
	return sheet.Rows[idx], sheet.Rows[idx+1:]
}

// ledgerID reads and normalizes the id cell of a ledger row. Blank and total
// rows yield "".
func ledgerID(row []string, col int) string {
	id := workbook.NormalizeID(workbook.Value(row, col))
	if strings.EqualFold(id, "total") || strings.EqualFold(id, "grand total") {
		return ""
	}
	return id
}

func (b *Builder) hasSheets(wb *workbook.Workbook, ledger string) bool {
	if wb == nil || len(wb.Sheets) == 0 {
		b.logger.Debug("Ledger not provided", zap.String("ledger", ledger))
		return false
	}
	return true
}

// Loans keeps the latest positive deduction per employee id.
func (b *Builder) Loans(wb *workbook.Workbook) map[string]decimal.Decimal {
	const (
		idCol     = 0
		amountCol = 2
	)

	loans := make(map[string]decimal.Decimal)
	if !b.hasSheets(wb, "loan") {
		return loans
	}

	for _, sheet := range wb.Sheets {
		_, rows := dataRows(sheet)
		for _, row := range rows {
			id := ledgerID(row, idCol)
			if id == "" {
				continue
			}
			amount, ok := workbook.ParseAmount(workbook.Value(row, amountCol))
			if !ok || !amount.IsPositive() {
				continue
			}
			loans[id] = amount
		}
	}

	b.logger.Info("Parsed loan ledger", zap.String("workbook", wb.Name), zap.Int("entries", len(loans)))
	return loans
}

// Percentages keeps positive custom bonus percentages per employee id.
func (b *Builder) Percentages(wb *workbook.Workbook) map[string]decimal.Decimal {
	const (
		idCol      = 0
		percentCol = 2
	)

	percentages := make(map[string]decimal.Decimal)
	if !b.hasSheets(wb, "percentage") {
		return percentages
	}

	for _, sheet := range wb.Sheets {
		_, rows := dataRows(sheet)
		for _, row := range rows {
			id := ledgerID(row, idCol)
			if id == "" {
				continue
			}
			raw := strings.TrimSuffix(workbook.Value(row, percentCol), "%")
			percent, ok := workbook.ParseAmount(raw)
			if !ok || !percent.IsPositive() {
				continue
			}
			percentages[id] = percent
		}
	}

	b.logger.Info("Parsed percentage ledger", zap.String("workbook", wb.Name), zap.Int("entries", len(percentages)))
	return percentages
}
