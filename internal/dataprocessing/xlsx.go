package dataprocessing

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXReader yields the rows of one worksheet through the RowSource
// contract. The workbook is read fully on open.
type XLSXReader struct {
	sheet  string
	header []string
	rows   [][]string
	pos    int
}

// NewXLSXReader opens a workbook and selects sheet, or the first sheet
// holding at least one non-blank row when sheet is empty. A workbook with
// no data row under its header fails with a *MalformedInputError.
func NewXLSXReader(r io.Reader, sheet string) (*XLSXReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newMalformed("unreadable workbook", err)
	}
	defer f.Close()

	var rows [][]string
	if sheet != "" {
		rows, err = f.GetRows(sheet)
		if err != nil {
			return nil, newMalformed(fmt.Sprintf("sheet %q not found", sheet), err)
		}
	} else {
		for _, name := range f.GetSheetList() {
			candidate, getErr := f.GetRows(name)
			if getErr != nil {
				continue
			}
			candidate = compactRows(candidate)
			if len(candidate) > 0 {
				sheet, rows = name, candidate
				break
			}
		}
	}

	rows = compactRows(rows)
	switch len(rows) {
	case 0:
		return nil, newMalformed("no header row", nil)
	case 1:
		return nil, newMalformed("no data rows", nil)
	}

	return &XLSXReader{sheet: sheet, header: rows[0], rows: rows[1:]}, nil
}

// Sheet returns the name of the worksheet being read.
func (x *XLSXReader) Sheet() string {
	return x.sheet
}

// Header returns the first non-blank row of the sheet.
func (x *XLSXReader) Header() []string {
	return x.header
}

// Next returns the next data row or io.EOF.
func (x *XLSXReader) Next() ([]string, error) {
	if x.pos >= len(x.rows) {
		return nil, io.EOF
	}
	row := x.rows[x.pos]
	x.pos++
	return row, nil
}

// compactRows trims every cell and drops rows whose cells are all blank.
func compactRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		blank := true
		trimmed := make([]string, len(row))
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, trimmed)
		}
	}
	return out
}
