package lookup

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bonus-service/internal/fiscal"
	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

var (
	nameAliases        = []string{"name", "employee name", "emp name"}
	grossAliases       = []string{"gross", "gross salary", "total gross", "total gross salary", "gross total"}
	gross2Aliases      = []string{"gross2", "gross 2", "capped gross", "bonus basis"}
	registerAliases    = []string{"register", "bonus register", "register amount", "statutory bonus"}
	actualAliases      = []string{"actual", "actual bonus", "actual payable"}
	unpaidAliases      = []string{"unpaid", "unpaid voucher", "unpaid amount"}
	finalPayoutAliases = []string{"final payout", "net payable", "final payable", "final", "net pay"}
	reimAliases        = []string{"reim", "reimbursement", "reimb"}
)

// hrColumns is the header layout of one HR ledger sheet; -1 marks an absent column.
type hrColumns struct {
	id, name int

	gross, gross2, register, actual, unpaid, finalPayout, reim int

	months map[int]string
}

func locateHRColumns(header []string) hrColumns {
	cols := hrColumns{
		id:          workbook.FindColumn(header, idHeaderAliases...),
		name:        workbook.FindColumn(header, nameAliases...),
		gross:       workbook.FindColumn(header, grossAliases...),
		gross2:      workbook.FindColumn(header, gross2Aliases...),
		register:    workbook.FindColumn(header, registerAliases...),
		actual:      workbook.FindColumn(header, actualAliases...),
		unpaid:      workbook.FindColumn(header, unpaidAliases...),
		finalPayout: workbook.FindColumn(header, finalPayoutAliases...),
		reim:        workbook.FindColumn(header, reimAliases...),
		months:      make(map[int]string),
	}

	taken := map[int]bool{}
	for _, c := range []int{cols.id, cols.name, cols.gross, cols.gross2, cols.register, cols.actual, cols.unpaid, cols.finalPayout, cols.reim} {
		if c >= 0 {
			taken[c] = true
		}
	}
	for i, cell := range header {
		if taken[i] {
			continue
		}
		if key, ok := fiscal.ParseMonthKey(cell); ok {
			cols.months[i] = key
		}
	}
	return cols
}

func amountAt(row []string, col int) decimal.Decimal {
	if col < 0 {
		return decimal.Zero
	}
	return workbook.AmountOrZero(workbook.Value(row, col))
}

// HRLedger parses the externally produced HR bonus ledger. Every sheet is
// read; the first entry seen for an id wins. Sheets without an id column are
// skipped.
func (b *Builder) HRLedger(wb *workbook.Workbook) map[string]models.HREntry {
	entries := make(map[string]models.HREntry)
	if !b.hasSheets(wb, "hr") {
		return entries
	}

	duplicates := 0
	for _, sheet := range wb.Sheets {
		header, rows := dataRows(sheet)
		cols := locateHRColumns(header)
		if cols.id < 0 {
			b.logger.Warn("HR ledger sheet has no id column", zap.String("sheet", sheet.Name))
			continue
		}

		for _, row := range rows {
			id := ledgerID(row, cols.id)
			if id == "" {
				continue
			}
			if _, exists := entries[id]; exists {
				duplicates++
				continue
			}

			entry := models.HREntry{
				EmpID: id,
				Name:  workbook.Value(row, cols.name),
				Fields: models.FieldSet{
					GrossSalary: amountAt(row, cols.gross),
					Gross2:      amountAt(row, cols.gross2),
					Register:    amountAt(row, cols.register),
					Actual:      amountAt(row, cols.actual),
					Unpaid:      amountAt(row, cols.unpaid),
					FinalPayout: amountAt(row, cols.finalPayout),
					Reim:        amountAt(row, cols.reim),
				},
			}
			if len(cols.months) > 0 {
				entry.Monthly = make(map[string]decimal.Decimal, len(cols.months))
				for col, key := range cols.months {
					if amount, ok := workbook.ParseAmount(workbook.Value(row, col)); ok {
						entry.Monthly[key] = entry.Monthly[key].Add(amount)
					}
				}
			}
			entries[id] = entry
		}
	}

	if duplicates > 0 {
		b.logger.Warn("HR ledger has duplicate ids", zap.Int("duplicates", duplicates))
	}
	b.logger.Info("Parsed HR ledger", zap.String("workbook", wb.Name), zap.Int("entries", len(entries)))
	return entries
}
