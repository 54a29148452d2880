package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Table errors.
var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrDuplicateKey    = errors.New("duplicate index key")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrLengthMismatch  = errors.New("column length does not match row count")
)

// Table is a wide table: one row per index key, one column per metric.
// Column names are unique and index keys are unique.
type Table struct {
	indexName string
	keys      []Value
	rowPos    map[string]int
	columns   []string
	colPos    map[string]int
	cells     [][]Value
}

// New creates an empty table whose index column is called indexName.
func New(indexName string) *Table {
	return &Table{
		indexName: indexName,
		rowPos:    make(map[string]int),
		colPos:    make(map[string]int),
	}
}

// IndexName returns the index column name.
func (t *Table) IndexName() string { return t.indexName }

// SetIndexName renames the index column.
func (t *Table) SetIndexName(name string) { t.indexName = name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.keys) }

// Keys returns a copy of the index keys in row order.
func (t *Table) Keys() []Value { return slices.Clone(t.keys) }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colPos[name]

	return ok
}

// HasKey reports whether the index contains key.
func (t *Table) HasKey(key Value) bool {
	_, ok := t.rowPos[keyString(key)]

	return ok
}

// AddColumn appends an empty column.
func (t *Table) AddColumn(name string) error {
	if _, ok := t.colPos[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}

	t.colPos[name] = len(t.columns)
	t.columns = append(t.columns, name)

	for i := range t.cells {
		t.cells[i] = append(t.cells[i], Missing())
	}

	return nil
}

func (t *Table) ensureColumn(name string) int {
	if pos, ok := t.colPos[name]; ok {
		return pos
	}

	_ = t.AddColumn(name)

	return t.colPos[name]
}

func (t *Table) ensureRow(key Value) int {
	k := keyString(key)
	if pos, ok := t.rowPos[k]; ok {
		return pos
	}

	t.rowPos[k] = len(t.keys)
	t.keys = append(t.keys, key)
	t.cells = append(t.cells, make([]Value, len(t.columns)))

	return t.rowPos[k]
}

// AppendRow adds a new row; values for unknown columns create those columns.
func (t *Table) AppendRow(key Value, values Record) error {
	if t.HasKey(key) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key.String())
	}

	row := t.ensureRow(key)

	for _, name := range sortedFields(values) {
		t.cells[row][t.ensureColumn(name)] = values[name]
	}

	return nil
}

// AppendValues adds a new row from parallel column/value slices, creating
// unknown columns in the order given.
func (t *Table) AppendValues(key Value, columns []string, values []Value) error {
	if len(columns) != len(values) {
		return fmt.Errorf("%w: %d columns for %d values", ErrLengthMismatch, len(columns), len(values))
	}

	if t.HasKey(key) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key.String())
	}

	row := t.ensureRow(key)
	for i, name := range columns {
		t.cells[row][t.ensureColumn(name)] = values[i]
	}

	return nil
}

// Set writes a cell, creating the row and column when needed.
func (t *Table) Set(key Value, column string, v Value) {
	row := t.ensureRow(key)
	col := t.ensureColumn(column)
	t.cells[row][col] = v
}

// Get reads a cell. The boolean is false when the row or column is absent.
func (t *Table) Get(key Value, column string) (Value, bool) {
	row, ok := t.rowPos[keyString(key)]
	if !ok {
		return Missing(), false
	}

	col, ok := t.colPos[column]
	if !ok {
		return Missing(), false
	}

	return t.cells[row][col], true
}

// Row returns the cells of one row keyed by column name.
func (t *Table) Row(key Value) (Record, bool) {
	row, ok := t.rowPos[keyString(key)]
	if !ok {
		return nil, false
	}

	rec := make(Record, len(t.columns))
	for i, name := range t.columns {
		rec[name] = t.cells[row][i]
	}

	return rec, true
}

// Column returns a copy of the column values in row order.
func (t *Table) Column(name string) ([]Value, error) {
	col, ok := t.colPos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	out := make([]Value, len(t.keys))
	for i := range t.cells {
		out[i] = t.cells[i][col]
	}

	return out, nil
}

// SetColumn replaces or appends a whole column.
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != len(t.keys) {
		return fmt.Errorf("%w: %q has %d values for %d rows", ErrLengthMismatch, name, len(values), len(t.keys))
	}

	col := t.ensureColumn(name)
	for i := range t.cells {
		t.cells[i][col] = values[i]
	}

	return nil
}

// DropColumn removes a column if present.
func (t *Table) DropColumn(name string) {
	col, ok := t.colPos[name]
	if !ok {
		return
	}

	t.columns = slices.Delete(t.columns, col, col+1)
	for i := range t.cells {
		t.cells[i] = slices.Delete(t.cells[i], col, col+1)
	}

	t.reindexColumns()
}

// RenameColumn changes a column name in place.
func (t *Table) RenameColumn(from, to string) error {
	col, ok := t.colPos[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, from)
	}

	if from == to {
		return nil
	}

	if _, exists := t.colPos[to]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, to)
	}

	t.columns[col] = to
	t.reindexColumns()

	return nil
}

// Reorder moves the named columns to the front in the given order.
// Names that do not exist are ignored; the rest keep their relative order.
func (t *Table) Reorder(first ...string) {
	order := make([]string, 0, len(t.columns))
	seen := make(map[string]bool, len(first))

	for _, name := range first {
		if t.HasColumn(name) && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	for _, name := range t.columns {
		if !seen[name] {
			order = append(order, name)
		}
	}

	perm := make([]int, len(order))
	for i, name := range order {
		perm[i] = t.colPos[name]
	}

	for r, row := range t.cells {
		next := make([]Value, len(row))
		for i, src := range perm {
			next[i] = row[src]
		}

		t.cells[r] = next
	}

	t.columns = order
	t.reindexColumns()
}

// SortByIndex orders rows by ascending index key.
func (t *Table) SortByIndex() {
	t.SortRows(func(a, b Row) bool { return a.Key.Less(b.Key) })
}

// Row is a read-only view handed to row predicates and comparators.
type Row struct {
	Key    Value
	table  *Table
	offset int
}

// Get reads a cell of the row.
func (r Row) Get(column string) Value {
	col, ok := r.table.colPos[column]
	if !ok {
		return Missing()
	}

	return r.table.cells[r.offset][col]
}

// SortRows orders rows with a stable sort using less.
func (t *Table) SortRows(less func(a, b Row) bool) {
	idx := make([]int, len(t.keys))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		return less(Row{Key: t.keys[idx[i]], table: t, offset: idx[i]}, Row{Key: t.keys[idx[j]], table: t, offset: idx[j]})
	})

	keys := make([]Value, len(idx))
	cells := make([][]Value, len(idx))

	for i, src := range idx {
		keys[i] = t.keys[src]
		cells[i] = t.cells[src]
	}

	t.keys = keys
	t.cells = cells
	t.reindexRows()
}

// Filter keeps rows for which keep returns true.
func (t *Table) Filter(keep func(r Row) bool) {
	var (
		keys  []Value
		cells [][]Value
	)

	for i, key := range t.keys {
		if keep(Row{Key: key, table: t, offset: i}) {
			keys = append(keys, key)
			cells = append(cells, t.cells[i])
		}
	}

	t.keys = keys
	t.cells = cells
	t.reindexRows()
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New(t.indexName)
	c.keys = slices.Clone(t.keys)
	c.columns = slices.Clone(t.columns)

	c.cells = make([][]Value, len(t.cells))
	for i, row := range t.cells {
		c.cells[i] = slices.Clone(row)
	}

	c.reindexRows()
	c.reindexColumns()

	return c
}

// Equal reports whether both tables have the same index name, keys, columns
// and cells, in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.indexName != o.indexName || !slices.Equal(t.columns, o.columns) || len(t.keys) != len(o.keys) {
		return false
	}

	for i, key := range t.keys {
		if !key.Equal(o.keys[i]) {
			return false
		}

		for j, v := range t.cells[i] {
			if !v.Equal(o.cells[i][j]) {
				return false
			}
		}
	}

	return true
}

func (t *Table) reindexRows() {
	t.rowPos = make(map[string]int, len(t.keys))
	for i, key := range t.keys {
		t.rowPos[keyString(key)] = i
	}
}

func (t *Table) reindexColumns() {
	t.colPos = make(map[string]int, len(t.columns))
	for i, name := range t.columns {
		t.colPos[name] = i
	}
}

func keyString(v Value) string {
	return v.Kind().String() + ":" + v.String()
}

func sortedFields(r Record) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
