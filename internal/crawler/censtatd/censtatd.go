// Package censtatd crawls time series from the Census and Statistics
// Department of Hong Kong. Every series goes through the same POST API and
// differs only in its query, its code tables and its label rules, so each
// one is a Definition run by a shared Crawler.
package censtatd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reshape"
	"bogoinsight/internal/table"
)

// DefaultURL is the statistics API endpoint.
const DefaultURL = "https://www.censtatd.gov.hk/api/post.php"

// Period layouts used by the API.
const (
	Monthly = "200601"
	Yearly  = "2006"
)

// Query is the JSON document posted as the "query" form field.
type Query struct {
	ID     string              `json:"id"`
	Lang   string              `json:"lang"`
	CV     map[string][]string `json:"cv"`
	SV     map[string][]string `json:"sv"`
	Period Period              `json:"period"`
	Freq   string              `json:"freq,omitempty"`
}

// Period bounds the query.
type Period struct {
	Start string `json:"start"`
}

// Growth derives a percent change column from a pivoted one.
type Growth struct {
	Source string
	Target string
}

// Definition describes one series.
type Definition struct {
	Info  crawler.Info
	Query Query

	// PeriodLayout parses the "period" field.
	PeriodLayout string
	// DropFreq removes records of that frequency, usually the yearly rollups.
	DropFreq string
	// QuarterEnds keeps only March, June, September and December.
	QuarterEnds bool

	// Metrics maps "sv" codes; Units maps "svDesc"; a nil Units leaves the unit empty.
	Metrics *normalizer.Mapping
	Units   *normalizer.Mapping

	// Dimension is the record field feeding the {sub} label part.
	Dimension string
	// BlankDimension replaces an empty dimension value before mapping.
	BlankDimension string
	// Dimensions maps dimension values; nil keeps them as they are.
	Dimensions *normalizer.Mapping

	Labels *normalizer.LabelRules
	Growth []Growth
}

// Crawler runs a Definition against the API.
type Crawler struct {
	def     Definition
	fetcher crawler.Fetcher
	url     string
}

// New creates a new Crawler instance. An empty endpoint means DefaultURL.
func New(def Definition, f crawler.Fetcher, endpoint string) *Crawler {
	if endpoint == "" {
		endpoint = DefaultURL
	}

	return &Crawler{def: def, fetcher: f, url: endpoint}
}

// Info returns the static description of the series.
func (c *Crawler) Info() crawler.Info { return c.def.Info }

// Definition returns the series definition.
func (c *Crawler) Definition() Definition { return c.def }

// Crawl posts the query and returns the dataSet records.
func (c *Crawler) Crawl(ctx context.Context) (*crawler.RawData, error) {
	q, err := json.Marshal(c.def.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query %s: %w", c.def.Query.ID, err)
	}

	body, err := c.fetcher.Fetch(ctx, crawler.Request{
		Method: http.MethodPost,
		URL:    c.url,
		Form:   url.Values{"query": {string(q)}},
	})
	if err != nil {
		return nil, err
	}

	records, err := extract.Records(body, "dataSet")
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", c.def.Query.ID, err)
	}

	return &crawler.RawData{Records: records}, nil
}

var quarterEnds = []int{3, 6, 9, 12}

// Process labels every observation and pivots them to one column per label.
func (c *Crawler) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	records, err := raw.RecordSet()
	if err != nil {
		return nil, err
	}

	d := c.def
	long := make([]table.Record, 0, len(records))

	for _, rec := range records {
		if d.DropFreq != "" && rec.String("freq") == d.DropFreq {
			continue
		}

		period, err := normalizer.ParsePeriod("period", rec.String("period"), d.PeriodLayout)
		if err != nil {
			return nil, err
		}

		if d.QuarterEnds {
			if p, _ := period.Time(); !slices.Contains(quarterEnds, int(p.Month())) {
				continue
			}
		}

		label, ok := c.label(rec, report)
		if !ok {
			continue
		}

		figure, err := normalizer.ParseNumber("figure", rec.String("figure"))
		if err != nil {
			return nil, err
		}

		long = append(long, table.Record{
			"period": period,
			"label":  table.Text(label),
			"figure": figure,
		})
	}

	t, err := reshape.Pivot(long, "period", "label", "figure")
	if err != nil {
		return nil, err
	}

	for _, g := range d.Growth {
		if err := reshape.PctChange(t, g.Source, g.Target, 2); err != nil {
			return nil, fmt.Errorf("growth %q: %w", g.Target, err)
		}
	}

	return t, nil
}

// label maps the codes of one record; any miss drops the record.
func (c *Crawler) label(rec extract.Record, report *normalizer.Report) (string, bool) {
	d := c.def

	metric, ok := d.Metrics.Map(normalizer.Clean(rec.String("sv")), report)
	if !ok {
		return "", false
	}

	var unit string
	if d.Units != nil {
		if unit, ok = d.Units.Map(normalizer.Clean(rec.String("svDesc")), report); !ok {
			return "", false
		}
	}

	var sub string
	if d.Dimension != "" {
		sub = normalizer.Clean(rec.String(d.Dimension))
		if sub == "" {
			sub = d.BlankDimension
		}

		if d.Dimensions != nil {
			if sub, ok = d.Dimensions.Map(sub, report); !ok {
				return "", false
			}
		}
	}

	return d.Labels.Build(metric, map[string]string{"sub": sub, "unit": unit}), true
}

func sourceDescription(id string) string {
	return fmt.Sprintf("Census and Statistics Department, HKSAR. ID: %s. URL: https://www.censtatd.gov.hk/en/web_table.html?id=%s", id, id)
}
