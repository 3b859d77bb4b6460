package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when a workbook has no readable worksheet.
var ErrNoSheet = errors.New("workbook has no worksheet")

// Row is one data row of the active sheet.
type Row struct {
	Number int      // 1-based spreadsheet row number; the first data row is 2
	Cells  []string // formatted cell values as shown in the spreadsheet
}

// Blank reports whether the row has no full name and should be skipped.
func (r Row) Blank() bool {
	return len(r.Cells) == 0 || strings.TrimSpace(r.Cells[ColFullName]) == ""
}

// Record parses the row.
func (r Row) Record() Record {
	return ParseRow(r.Cells)
}

// Workbook holds the data rows of a workbook's active sheet.
type Workbook struct {
	SheetName string
	rows      []Row
	maxRow    int
}

// ReadWorkbook loads an .xlsx document and captures the rows of its active
// sheet, skipping the header row.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheet
		}
		name = sheets[0]
	}

	all, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	wb := &Workbook{SheetName: name, maxRow: len(all)}
	for i := 1; i < len(all); i++ {
		wb.rows = append(wb.rows, Row{Number: i + 1, Cells: all[i]})
	}
	return wb, nil
}

// NewWorkbook builds a Workbook from raw data rows (header excluded).
func NewWorkbook(rows ...[]string) *Workbook {
	wb := &Workbook{maxRow: len(rows) + 1}
	for i, cells := range rows {
		wb.rows = append(wb.rows, Row{Number: i + 2, Cells: cells})
	}
	return wb
}

// Rows returns the data rows in sheet order, blank rows included.
func (w *Workbook) Rows() []Row {
	return w.rows
}

// TotalRows is the number of rows below the header, blank rows included.
func (w *Workbook) TotalRows() int {
	if w.maxRow == 0 {
		return 0
	}
	return w.maxRow - 1
}
