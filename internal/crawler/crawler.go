package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bogoinsight/internal/export"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// ErrUnexpectedRawData is returned by Process when raw data has the wrong shape.
var ErrUnexpectedRawData = errors.New("unexpected raw data")

// Info is the static description of a crawler.
type Info struct {
	Topic             string
	Description       string
	Tags              []string
	SourceDescription string
}

// Category is the snapshot directory name of the topic.
func (i Info) Category() string {
	return export.CategoryName(i.Topic)
}

// RawData is what Crawl hands to Process. Sources fill whichever slots
// match their payload.
type RawData struct {
	Records []extract.Record
	Grids   []*extract.Grid
	Tables  []*table.Table
	// Parts holds the raw data of sources a composite crawler merges in.
	Parts   []*RawData
	Fetched time.Time
}

// Crawler is one source. Crawl does the network and structural work,
// Process turns the result into a wide table.
type Crawler interface {
	Info() Info
	Crawl(ctx context.Context) (*RawData, error)
	Process(raw *RawData, report *normalizer.Report) (*table.Table, error)
}

// RecordSet returns the records, failing when there are none.
func (r *RawData) RecordSet() ([]extract.Record, error) {
	if r == nil || len(r.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrUnexpectedRawData)
	}

	return r.Records, nil
}

// Grid returns the i-th grid.
func (r *RawData) Grid(i int) (*extract.Grid, error) {
	if r == nil || i < 0 || i >= len(r.Grids) || r.Grids[i] == nil {
		return nil, fmt.Errorf("%w: grid %d missing", ErrUnexpectedRawData, i)
	}

	return r.Grids[i], nil
}

// GridCount fails unless exactly n grids are present.
func (r *RawData) GridCount(n int) error {
	got := 0
	if r != nil {
		got = len(r.Grids)
	}

	if got != n {
		return fmt.Errorf("%w: %d grids, want %d", ErrUnexpectedRawData, got, n)
	}

	return nil
}

// Table returns the i-th pre-built table.
func (r *RawData) Table(i int) (*table.Table, error) {
	if r == nil || i < 0 || i >= len(r.Tables) || r.Tables[i] == nil {
		return nil, fmt.Errorf("%w: table %d missing", ErrUnexpectedRawData, i)
	}

	return r.Tables[i], nil
}

// Part returns the i-th nested raw data.
func (r *RawData) Part(i int) (*RawData, error) {
	if r == nil || i < 0 || i >= len(r.Parts) || r.Parts[i] == nil {
		return nil, fmt.Errorf("%w: part %d missing", ErrUnexpectedRawData, i)
	}

	return r.Parts[i], nil
}
