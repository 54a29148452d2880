package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidLayout is a Layout that cannot be applied at all.
var ErrInvalidLayout = errors.New("invalid sheet layout")

// Layout pins a block of a workbook sheet. The offsets mirror the upstream
// file as published; when the file moves, extraction must fail rather than
// read the wrong cells.
type Layout struct {
	Sheet string
	// Columns are letters ("C") or inclusive ranges ("E:P").
	Columns []string
	// SkipRows counts rows above the data, header row included.
	SkipRows   int
	SkipFooter int
	// Names become the grid header, one per selected column.
	Names []string
}

// ColumnIndexes expands the layout's column letters into 0-based indexes.
func (l Layout) ColumnIndexes() ([]int, error) {
	var out []int

	for _, spec := range l.Columns {
		from, to, isRange := strings.Cut(spec, ":")
		if !isRange {
			to = from
		}

		start, err := excelize.ColumnNameToNumber(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrInvalidLayout, spec, err)
		}

		end, err := excelize.ColumnNameToNumber(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %w", ErrInvalidLayout, spec, err)
		}

		if end < start {
			return nil, fmt.Errorf("%w: column range %q is reversed", ErrInvalidLayout, spec)
		}

		for c := start; c <= end; c++ {
			out = append(out, c-1)
		}
	}

	return out, nil
}

// SheetRange reads the layout's block from an OOXML or legacy .xls workbook.
// Rows whose selected cells are all blank are skipped.
func SheetRange(data []byte, l Layout) (*Grid, error) {
	cols, err := l.ColumnIndexes()
	if err != nil {
		return nil, err
	}

	if len(l.Names) != len(cols) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrInvalidLayout, len(l.Names), len(cols))
	}

	_, rows, err := sheetRows(data, l.Sheet)
	if err != nil {
		return nil, err
	}

	if len(rows) <= l.SkipRows+l.SkipFooter {
		return nil, fmt.Errorf("%w: %q has %d rows, layout skips %d+%d", ErrLayoutShift, l.Sheet, len(rows), l.SkipRows, l.SkipFooter)
	}

	g := &Grid{Source: l.Sheet, Header: append([]string(nil), l.Names...)}

	for _, row := range rows[l.SkipRows : len(rows)-l.SkipFooter] {
		out := make([]string, len(cols))
		blank := true

		for i, c := range cols {
			if c < len(row) {
				out[i] = strings.TrimSpace(row[c])
			}

			if out[i] != "" {
				blank = false
			}
		}

		if !blank {
			g.Rows = append(g.Rows, out)
		}
	}

	if len(g.Rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTable, l.Sheet)
	}

	return g, nil
}

// Workbook reads every row of the first sheet (or the named one) with the
// first row as header.
func Workbook(data []byte, sheet string) (*Grid, error) {
	sheet, rows, err := sheetRows(data, sheet)
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTable, sheet)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	g := &Grid{Source: sheet, Header: header}
	for _, row := range rows[1:] {
		g.Rows = append(g.Rows, pad(append([]string(nil), row...), len(header))[:len(header)])
	}

	return g, nil
}

// sheetRows returns the raw cell text of one sheet, the first one when sheet
// is empty, along with the sheet's name.
func sheetRows(data []byte, sheet string) (string, [][]string, error) {
	if IsLegacyWorkbook(data) {
		return legacyRows(data, sheet)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: cannot open workbook: %w", ErrStructuralExtraction, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return "", nil, fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: read %q: %w", ErrStructuralExtraction, sheet, err)
	}

	return sheet, rows, nil
}
