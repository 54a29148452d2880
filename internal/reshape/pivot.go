// Package reshape turns long records into wide tables and derives
// period-over-period columns.
package reshape

import (
	"errors"
	"fmt"
	"sort"

	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// Reshape errors.
var (
	ErrPivotCollision = errors.New("pivot collision")
	ErrMissingField   = errors.New("record is missing a pivot field")
	ErrNotNumeric     = errors.New("column is not numeric")
)

// CollisionError is two records with different values for one (index, column) cell.
type CollisionError struct {
	Index    string
	Column   string
	Existing string
	Incoming string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("pivot collision at (%s, %s): %q vs %q", e.Index, e.Column, e.Existing, e.Incoming)
}

// Is lets errors.Is(err, ErrPivotCollision) match.
func (e *CollisionError) Is(target error) bool { return target == ErrPivotCollision }

// Pivot spreads records into a table indexed by indexField with one column
// per distinct columnField value. The index is sorted ascending and the
// columns lexicographically. A repeated (index, column) pair carrying the
// same value is accepted; a different value is a CollisionError.
func Pivot(records []table.Record, indexField, columnField, valueField string) (*table.Table, error) {
	type cell struct {
		index  table.Value
		column string
		value  table.Value
	}

	seen := make(map[string]table.Value)
	columns := make(map[string]bool)
	cells := make([]cell, 0, len(records))

	for i, rec := range records {
		idx, ok := rec[indexField]
		if !ok || idx.IsMissing() {
			return nil, fmt.Errorf("%w: %q in record %d", ErrMissingField, indexField, i)
		}

		colValue, ok := rec[columnField]
		if !ok || colValue.IsMissing() {
			return nil, fmt.Errorf("%w: %q in record %d", ErrMissingField, columnField, i)
		}

		col := colValue.String()
		value := rec[valueField]

		key := idx.String() + "\x00" + col
		if prev, dup := seen[key]; dup {
			if !prev.Equal(value) {
				return nil, &CollisionError{Index: idx.String(), Column: col, Existing: prev.String(), Incoming: value.String()}
			}

			continue
		}

		seen[key] = value
		columns[col] = true
		cells = append(cells, cell{index: idx, column: col, value: value})
	}

	names := make([]string, 0, len(columns))
	for c := range columns {
		names = append(names, c)
	}

	sort.Strings(names)

	t := table.New(indexField)
	for _, c := range names {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}

	for _, c := range cells {
		t.Set(c.index, c.column, c.value)
	}

	t.SortByIndex()

	return t, nil
}

// PctChange appends target holding round((v[i]-v[i-1])/v[i-1]*100, decimals)
// computed over source in current row order. The first row, and any row
// whose current or previous value is missing or whose previous value is
// zero, gets a missing value.
func PctChange(t *table.Table, source, target string, decimals int) error {
	values, err := t.Column(source)
	if err != nil {
		return err
	}

	out := make([]table.Value, len(values))

	for i := range values {
		if i == 0 {
			continue
		}

		if values[i].IsMissing() || values[i-1].IsMissing() {
			continue
		}

		cur, ok1 := values[i].Float()
		prev, ok2 := values[i-1].Float()

		if !ok1 || !ok2 {
			return fmt.Errorf("%w: %q", ErrNotNumeric, source)
		}

		if prev == 0 {
			continue
		}

		out[i] = table.Number(normalizer.Round((cur-prev)/prev*100, decimals))
	}

	return t.SetColumn(target, out)
}

// SuffixDuplicates renames repeated names so every entry is unique: the
// first occurrence keeps its name, later ones get " v2", " v3" and so on.
func SuffixDuplicates(names []string) []string {
	counts := make(map[string]int, len(names))
	out := make([]string, len(names))

	for i, n := range names {
		counts[n]++
		if counts[n] == 1 {
			out[i] = n
		} else {
			out[i] = fmt.Sprintf("%s v%d", n, counts[n])
		}
	}

	return out
}
