package lookup

import (
	"strings"

	"go.uber.org/zap"

	"bonus-service/internal/models"
	"bonus-service/internal/workbook"
)

// Due voucher ledger columns
const (
	dueIDCol       = 0
	dueDeptCol     = 2
	dueCategoryCol = 3
	dueAmountCol   = 4
)

// Due voucher categories
const (
	CategoryAlreadyPaid = "A"
	CategoryUnpaid      = "U"
)

// DueVouchers accumulates already-paid and unpaid amounts per employee id.
// Rows with a zero amount or an unknown category are ignored.
func (b *Builder) DueVouchers(wb *workbook.Workbook) map[string]models.DueVoucherEntry {
	entries := make(map[string]models.DueVoucherEntry)
	if !b.hasSheets(wb, "due voucher") {
		return entries
	}

	ignored := 0
	for _, sheet := range wb.Sheets {
		_, rows := dataRows(sheet)
		for _, row := range rows {
			id := ledgerID(row, dueIDCol)
			if id == "" {
				continue
			}

			amount, ok := workbook.ParseAmount(workbook.Value(row, dueAmountCol))
			if !ok || amount.IsZero() {
				continue
			}

			entry := entries[id]
			switch voucherCategory(workbook.Value(row, dueCategoryCol)) {
			case CategoryAlreadyPaid:
				entry.AlreadyPaid = entry.AlreadyPaid.Add(amount)
			case CategoryUnpaid:
				entry.Unpaid = entry.Unpaid.Add(amount)
			default:
				ignored++
				continue
			}
			if dept := workbook.Value(row, dueDeptCol); dept != "" {
				entry.Dept = strings.ToUpper(dept)
			}
			entries[id] = entry
		}
	}

	b.logger.Info("Parsed due voucher ledger",
		zap.String("workbook", wb.Name),
		zap.Int("entries", len(entries)),
		zap.Int("ignored_rows", ignored))
	return entries
}

// voucherCategory maps "A"/"Already Paid" and "U"/"Unpaid" to their codes.
func voucherCategory(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case c == CategoryAlreadyPaid || strings.HasPrefix(c, "ALREADY"):
		return CategoryAlreadyPaid
	case c == CategoryUnpaid || strings.HasPrefix(c, "UNPAID"):
		return CategoryUnpaid
	}
	return ""
}
