// Package rvd crawls the property market workbooks published by the
// Rating and Valuation Department of Hong Kong.
package rvd

import (
	"context"
	"fmt"
	"strings"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reshape"
	"bogoinsight/internal/table"
)

// Workbook locations.
const (
	RentalIndexURL     = "https://www.rvd.gov.hk/doc/en/statistics/his_data_3.xls"
	PrivateDomesticURL = "https://www.rvd.gov.hk/doc/en/statistics/private_domestic.xls"
)

// Column names shared by the layouts.
const (
	yearColumn   = "year"
	monthColumn  = "month"
	periodColumn = "period"
)

const sourceDescription = "Rating and Valuation Department, HKSAR. " +
	"URL: https://www.rvd.gov.hk/en/publications/property_market_statistics.html"

// Definition pins one sheet block and how it becomes a table.
type Definition struct {
	Info   crawler.Info
	URL    string
	Layout extract.Layout
	// Monthly layouts carry a month column and print the year only on the
	// first month of each year.
	Monthly bool
	// PercentScale multiplies "(%)" columns stored as fractions.
	PercentScale bool
	// GrowthSource feeds GrowthTarget with a period-over-period change.
	GrowthSource string
	GrowthTarget string
}

// Crawler downloads a workbook and reads its fixed layout.
type Crawler struct {
	def       Definition
	fetcher   crawler.Fetcher
	url       string
	processor *normalizer.Processor
}

// New creates a new Crawler instance. An empty url keeps the definition's.
func New(def Definition, f crawler.Fetcher, url string) *Crawler {
	if url == "" {
		url = def.URL
	}

	return &Crawler{def: def, fetcher: f, url: url, processor: normalizer.NewProcessor()}
}

// Info returns the static description of the dataset.
func (c *Crawler) Info() crawler.Info { return c.def.Info }

// Crawl downloads the workbook and cuts out the layout's block.
func (c *Crawler) Crawl(ctx context.Context) (*crawler.RawData, error) {
	body, err := c.fetcher.Fetch(ctx, crawler.Request{URL: c.url})
	if err != nil {
		return nil, err
	}

	g, err := extract.SheetRange(body, c.def.Layout)
	if err != nil {
		return nil, err
	}

	return &crawler.RawData{Grids: []*extract.Grid{g}}, nil
}

// Process builds the period index, coerces every value and adds growth.
func (c *Crawler) Process(raw *crawler.RawData, _ *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(1); err != nil {
		return nil, err
	}

	g, _ := raw.Grid(0)

	tidy, err := c.withPeriods(g)
	if err != nil {
		return nil, err
	}

	types := map[string]normalizer.Coercion{periodColumn: normalizer.AsDate}

	for _, h := range tidy.Header[1:] {
		types[h] = normalizer.AsNumber
		if c.def.PercentScale && strings.HasSuffix(h, "(%)") {
			types[h] = normalizer.Scaled(100, 2)
		}
	}

	batch, err := c.processor.Process(tidy, normalizer.GridSpec{
		Columns: normalizer.Identity("columns", tidy.Header...),
		Types:   types,
	})
	if err != nil {
		return nil, err
	}

	t, err := batch.Table(periodColumn)
	if err != nil {
		return nil, err
	}

	if c.def.GrowthTarget != "" {
		if err := reshape.PctChange(t, c.def.GrowthSource, c.def.GrowthTarget, 2); err != nil {
			return nil, fmt.Errorf("growth %q: %w", c.def.GrowthTarget, err)
		}
	}

	return t, nil
}

// withPeriods replaces the year (and month) columns with a period column.
// A blank year repeats the one above it.
func (c *Crawler) withPeriods(g *extract.Grid) (*extract.Grid, error) {
	if err := g.Require(yearColumn); err != nil {
		return nil, err
	}

	if c.def.Monthly {
		if err := g.Require(monthColumn); err != nil {
			return nil, err
		}
	}

	var values []int

	for i, h := range g.Header {
		if h != yearColumn && h != monthColumn {
			values = append(values, i)
		}
	}

	out := &extract.Grid{Source: g.Source, Header: []string{periodColumn}}
	for _, i := range values {
		out.Header = append(out.Header, g.Header[i])
	}

	year := 0

	for n, row := range g.Rows {
		if cell := normalizer.Clean(g.Cell(row, yearColumn)); cell != "" {
			y, err := whole(yearColumn, cell)
			if err != nil {
				return nil, err
			}

			year = y
		}

		if year == 0 {
			return nil, fmt.Errorf("%w: row %d of %s has no year", extract.ErrLayoutShift, n, g.Source)
		}

		period := fmt.Sprintf("%04d", year)

		if c.def.Monthly {
			m, err := whole(monthColumn, g.Cell(row, monthColumn))
			if err != nil {
				return nil, err
			}

			if m < 1 || m > 12 {
				return nil, &normalizer.CoercionError{Field: monthColumn, Raw: g.Cell(row, monthColumn), Kind: "month"}
			}

			period = fmt.Sprintf("%04d-%02d", year, m)
		}

		cells := []string{period}
		for _, i := range values {
			if i < len(row) {
				cells = append(cells, row[i])
			} else {
				cells = append(cells, "")
			}
		}

		out.Rows = append(out.Rows, cells)
	}

	return out, nil
}

// whole parses a cell that must hold an integer.
func whole(field, raw string) (int, error) {
	v, err := normalizer.ParseNumber(field, raw)
	if err != nil {
		return 0, err
	}

	f, ok := v.Float()
	if !ok || f != float64(int(f)) {
		return 0, &normalizer.CoercionError{Field: field, Raw: raw, Kind: "integer"}
	}

	return int(f), nil
}
