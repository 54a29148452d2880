// Package extract locates the structured region of a fetched document and
// returns it as raw string cells or raw JSON records.
package extract

import (
	"errors"
	"fmt"
)

// Structural extraction errors. All of them match ErrStructuralExtraction.
var (
	ErrStructuralExtraction = errors.New("structural extraction failure")
	ErrSectionNotFound      = fmt.Errorf("%w: section not found", ErrStructuralExtraction)
	ErrTableNotFound        = fmt.Errorf("%w: table not found", ErrStructuralExtraction)
	ErrEmptyTable           = fmt.Errorf("%w: table is empty", ErrStructuralExtraction)
	ErrRecordsNotFound      = fmt.Errorf("%w: records not found", ErrStructuralExtraction)
	ErrSheetNotFound        = fmt.Errorf("%w: sheet not found", ErrStructuralExtraction)
	ErrLayoutShift          = fmt.Errorf("%w: sheet layout does not match", ErrStructuralExtraction)
	ErrColumnNotFound       = fmt.Errorf("%w: column not found", ErrStructuralExtraction)
)

// Grid is a rectangular block of raw string cells with one header row.
type Grid struct {
	// Source tags where the grid came from, e.g. the section id.
	Source string
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (g *Grid) Len() int { return len(g.Rows) }

// Index returns the position of a header, or -1.
func (g *Grid) Index(col string) int {
	for i, h := range g.Header {
		if h == col {
			return i
		}
	}

	return -1
}

// Cell returns the cell of row under col, or "" if the column is absent.
func (g *Grid) Cell(row []string, col string) string {
	i := g.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}

	return row[i]
}

// Column returns every cell under col.
func (g *Grid) Column(col string) ([]string, error) {
	i := g.Index(col)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col)
	}

	out := make([]string, len(g.Rows))
	for r, row := range g.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}

	return out, nil
}

// Require fails unless every named column exists.
func (g *Grid) Require(cols ...string) error {
	for _, c := range cols {
		if g.Index(c) < 0 {
			return fmt.Errorf("%w: %q in %s", ErrColumnNotFound, c, g.Source)
		}
	}

	return nil
}

// Filter keeps rows for which keep returns true.
func (g *Grid) Filter(keep func(row []string) bool) {
	rows := g.Rows[:0]

	for _, row := range g.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}

	g.Rows = rows
}

// Maps returns each row keyed by header.
func (g *Grid) Maps() []map[string]string {
	out := make([]map[string]string, len(g.Rows))

	for r, row := range g.Rows {
		m := make(map[string]string, len(g.Header))
		for i, h := range g.Header {
			if i < len(row) {
				m[h] = row[i]
			} else {
				m[h] = ""
			}
		}

		out[r] = m
	}

	return out
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}

	return row
}
