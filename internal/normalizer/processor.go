// Package normalizer turns raw extracted cells into typed, canonically named
// records: cleanup, row filtering, column renaming, type coercion, label
// construction and categorical mapping.
package normalizer

import (
	"errors"
	"fmt"

	"bogoinsight/internal/extract"
	"bogoinsight/internal/table"
)

// ErrMissingIndexColumn is a GridSpec whose index column is not renamed into the output.
var ErrMissingIndexColumn = errors.New("index column is not produced by the column mapping")

// Coercion parses one raw cell.
type Coercion func(field, raw string) (table.Value, error)

// Built-in coercions.
var (
	AsText     Coercion = defaultTransformer.Text
	AsNumber   Coercion = func(field, raw string) (table.Value, error) { return defaultTransformer.Number(field, raw) }
	AsDate     Coercion = defaultTransformer.Date
	AsQuantity Coercion = defaultTransformer.Quantity
)

// NumberBefore parses the part of the cell before each separator in turn.
func NumberBefore(seps ...string) Coercion {
	return func(field, raw string) (table.Value, error) {
		return defaultTransformer.Number(field, raw, seps...)
	}
}

// Scaled parses a number, multiplies it by factor and rounds it.
func Scaled(factor float64, decimals int) Coercion {
	return func(field, raw string) (table.Value, error) {
		v, err := defaultTransformer.Number(field, raw)
		if err != nil {
			return v, err
		}

		if f, ok := v.Float(); ok {
			return table.Number(Round(f*factor, decimals)), nil
		}

		return v, nil
	}
}

// GridSpec drives the fixed normalization sequence over a raw grid.
type GridSpec struct {
	// Keep filters rows on their cleaned raw cells keyed by raw header.
	Keep func(row map[string]string) bool
	// Columns renames raw headers to canonical names; others are dropped.
	Columns *Mapping
	// Types coerces canonical columns; absent columns stay text.
	Types map[string]Coercion
}

// Batch is the typed output of a GridSpec.
type Batch struct {
	Columns []string
	Records []table.Record
}

// Processor runs a GridSpec over a grid.
type Processor struct {
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{transformer: defaultTransformer}
}

// Process applies cleanup, filtering, renaming and coercion in that order.
func (p *Processor) Process(g *extract.Grid, spec GridSpec) (*Batch, error) {
	type source struct {
		pos  int
		name string
	}

	var selected []source

	seen := make(map[string]bool)

	for _, raw := range spec.Columns.Keys() {
		pos := g.Index(raw)
		if pos < 0 {
			continue
		}

		name, _ := spec.Columns.Lookup(raw)
		if seen[name] {
			return nil, fmt.Errorf("columns %s: two raw headers map to %q", spec.Columns.Name(), name)
		}

		seen[name] = true
		selected = append(selected, source{pos: pos, name: name})
	}

	batch := &Batch{Columns: make([]string, len(selected))}
	for i, s := range selected {
		batch.Columns[i] = s.name
	}

	for _, row := range g.Rows {
		cleaned := make(map[string]string, len(g.Header))
		for i, h := range g.Header {
			if i < len(row) {
				cleaned[h] = p.transformer.Clean(row[i])
			}
		}

		if spec.Keep != nil && !spec.Keep(cleaned) {
			continue
		}

		rec := make(table.Record, len(selected))

		for _, s := range selected {
			coerce, ok := spec.Types[s.name]
			if !ok {
				coerce = AsText
			}

			raw := ""
			if s.pos < len(row) {
				raw = row[s.pos]
			}

			v, err := coerce(s.name, raw)
			if err != nil {
				return nil, err
			}

			rec[s.name] = v
		}

		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}

// Table indexes the batch by index column; a repeated key is an error.
func (b *Batch) Table(index string) (*table.Table, error) {
	t := table.New(index)

	var cols []string

	found := false

	for _, c := range b.Columns {
		if c == index {
			found = true

			continue
		}

		cols = append(cols, c)
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrMissingIndexColumn, index)
	}

	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}

	for _, rec := range b.Records {
		values := make([]table.Value, len(cols))
		for i, c := range cols {
			values[i] = rec[c]
		}

		if err := t.AppendValues(rec[index], cols, values); err != nil {
			return nil, err
		}
	}

	return t, nil
}
