package workbook

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet read as raw cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is the in-memory form of a spreadsheet file, sheets in file order.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// Open reads every sheet of the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return load(f, filepath.Base(path))
}

// Read reads every sheet of a workbook streamed from r.
func Read(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", name, err)
	}
	defer f.Close()

	return load(f, name)
}

func load(f *excelize.File, name string) (*Workbook, error) {
	wb := &Workbook{Name: name}
	for _, sheetName := range f.GetSheetList() {
		// Raw values keep dates as serial numbers and amounts free of display formats.
		rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheetName, name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheetName, Rows: rows})
	}
	return wb, nil
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}
