// Package reconcile merges wide tables that share an entity key.
package reconcile

import (
	"errors"
	"fmt"

	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// ErrIndexMismatch is two tables indexed by different fields.
var ErrIndexMismatch = errors.New("tables are indexed by different fields")

// Combine merges secondary into primary without modifying either. Primary
// values win wherever they are present; secondary contributes new columns,
// new keys, and values for cells primary leaves missing. Keys keep primary
// order followed by keys only secondary has; columns likewise.
func Combine(primary, secondary *table.Table) (*table.Table, error) {
	if primary.IndexName() != secondary.IndexName() {
		return nil, fmt.Errorf("%w: %q and %q", ErrIndexMismatch, primary.IndexName(), secondary.IndexName())
	}

	out := primary.Clone()

	for _, c := range secondary.Columns() {
		if !out.HasColumn(c) {
			if err := out.AddColumn(c); err != nil {
				return nil, err
			}
		}
	}

	for _, key := range secondary.Keys() {
		row, _ := secondary.Row(key)

		for _, c := range secondary.Columns() {
			v := row[c]
			if v.IsMissing() {
				if !out.HasKey(key) {
					out.Set(key, c, v)
				}

				continue
			}

			if cur, ok := out.Get(key, c); ok && !cur.IsMissing() {
				continue
			}

			out.Set(key, c, v)
		}
	}

	return out, nil
}

// CombineAll folds secondaries into primary left to right, so earlier
// tables take priority over later ones.
func CombineAll(primary *table.Table, secondaries ...*table.Table) (*table.Table, error) {
	out := primary

	for i, s := range secondaries {
		next, err := Combine(out, s)
		if err != nil {
			return nil, fmt.Errorf("combine source %d: %w", i+1, err)
		}

		out = next
	}

	return out, nil
}

// FromRecords builds an entity-keyed table. The raw key of each record is
// resolved through aliases; keys absent from aliases are reported and the
// record is dropped. When two records resolve to the same entity the first
// one wins. A nil aliases keeps raw keys as they are.
func FromRecords(index string, keyField string, columns []string, records []table.Record, aliases *normalizer.Mapping, report *normalizer.Report) (*table.Table, error) {
	t := table.New(index)

	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}

	for _, rec := range records {
		raw := rec[keyField]
		if raw.IsMissing() {
			continue
		}

		name := raw.String()

		if aliases != nil {
			canonical, ok := aliases.Map(name, report)
			if !ok {
				continue
			}

			name = canonical
		}

		key := table.Text(name)
		if t.HasKey(key) {
			continue
		}

		values := make([]table.Value, len(columns))
		for i, c := range columns {
			values[i] = rec[c]
		}

		if err := t.AppendValues(key, columns, values); err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
	}

	return t, nil
}
