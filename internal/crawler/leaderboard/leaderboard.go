// Package leaderboard crawls public LLM benchmark leaderboards into tables
// keyed by canonical model name.
package leaderboard

import (
	"fmt"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reconcile"
	"bogoinsight/internal/table"
)

// NameColumn indexes every leaderboard table.
const NameColumn = "name"

var tags = []string{"LLM", "machine learning", "benchmark"}

type pair = normalizer.Pair

// ModelName reads a model cell, which may hold a link rather than plain text.
var ModelName normalizer.Coercion = func(field, raw string) (table.Value, error) {
	return normalizer.AsText(field, extract.HTMLText(raw))
}

// board turns one raw grid into a name-indexed table.
type board struct {
	// columns maps raw headers to canonical names; one of them must be NameColumn.
	columns *normalizer.Mapping
	types   map[string]normalizer.Coercion
}

func (b board) table(g *extract.Grid, aliases *normalizer.Mapping, report *normalizer.Report) (*table.Table, error) {
	if err := g.Require(b.columns.Keys()...); err != nil {
		return nil, err
	}

	types := map[string]normalizer.Coercion{NameColumn: ModelName}
	for c, fn := range b.types {
		types[c] = fn
	}

	batch, err := normalizer.NewProcessor().Process(g, normalizer.GridSpec{Columns: b.columns, Types: types})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Source, err)
	}

	var values []string

	for _, c := range batch.Columns {
		if c != NameColumn {
			values = append(values, c)
		}
	}

	return reconcile.FromRecords(NameColumn, NameColumn, values, batch.Records, aliases, report)
}

// numbers coerces every listed column as a number.
func numbers(cols ...string) map[string]normalizer.Coercion {
	out := make(map[string]normalizer.Coercion, len(cols))
	for _, c := range cols {
		out[c] = normalizer.AsNumber
	}

	return out
}

// All returns every leaderboard with default endpoints.
func All(f crawler.Fetcher) []crawler.Crawler {
	return []crawler.Crawler{
		NewOpenCompass(f, ""),
		NewLMSYS(f, ""),
		NewBFCL(f, ""),
	}
}
