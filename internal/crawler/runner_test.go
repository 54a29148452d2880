package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bogoinsight/internal/catalog"
	"bogoinsight/internal/export"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

var errUpstream = errors.New("upstream down")

type fakeCrawler struct {
	topic    string
	crawlErr error
	rows     map[string]float64
	unmapped []string
}

func (f *fakeCrawler) Info() Info {
	return Info{Topic: f.topic, Description: "test series", Tags: []string{"test"}}
}

func (f *fakeCrawler) Crawl(context.Context) (*RawData, error) {
	if f.crawlErr != nil {
		return nil, f.crawlErr
	}

	raw := &RawData{}
	for period, v := range f.rows {
		raw.Records = append(raw.Records, extract.Record{"period": period, "figure": v})
	}

	return raw, nil
}

func (f *fakeCrawler) Process(raw *RawData, report *normalizer.Report) (*table.Table, error) {
	records, err := raw.RecordSet()
	if err != nil {
		return nil, err
	}

	for _, code := range f.unmapped {
		report.Unmapped("sv", code)
	}

	t := table.New("period")
	for _, r := range records {
		p, err := normalizer.ParsePeriod("period", r.String("period"), "200601")
		if err != nil {
			return nil, err
		}

		if err := t.AppendRow(p, table.Record{"value": table.Number(r["figure"].(float64))}); err != nil {
			return nil, err
		}
	}

	t.SortByIndex()

	return t, nil
}

func fixedNow() time.Time { return time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC) }

func newTestRunner(t *testing.T, cat Catalog) (*Runner, string) {
	t.Helper()

	dir := t.TempDir()
	r := NewRunner(export.NewWriter(dir, fixedNow), cat, nil)
	r.now = fixedNow

	return r, dir
}

func TestRunner_Run(t *testing.T) {
	r, dir := newTestRunner(t, nil)

	res, err := r.Run(context.Background(), &fakeCrawler{
		topic:    "Test Series",
		rows:     map[string]float64{"202303": 5.75, "202306": 6},
		unmapped: []string{"XX"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test_series", res.Category)
	assert.Equal(t, filepath.Join(dir, "test_series", "20240517.csv"), res.Path)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, res.Columns)
	require.Len(t, res.Unmapped, 1)
	assert.Equal(t, "XX", res.Unmapped[0].Code)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "period,value\n2023-03-01,5.75\n2023-06-01,6\n", string(data))
}

func TestRunner_FailureKeepsPreviousSnapshot(t *testing.T) {
	r, dir := newTestRunner(t, nil)
	prev := filepath.Join(dir, "test_series", "20240101.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(prev), 0o755))
	require.NoError(t, os.WriteFile(prev, []byte("period,value\n"), 0o644))

	res, err := r.Run(context.Background(), &fakeCrawler{topic: "Test Series", crawlErr: errUpstream})
	require.ErrorIs(t, err, errUpstream)
	assert.ErrorIs(t, res.Err, errUpstream)

	_, statErr := os.Stat(prev)
	assert.NoError(t, statErr)
}

func TestRunner_ValidationFailure(t *testing.T) {
	r, _ := newTestRunner(t, nil)

	_, err := r.Run(context.Background(), &fakeCrawler{topic: "Empty", rows: map[string]float64{}})
	assert.ErrorIs(t, err, ErrUnexpectedRawData)
}

func TestRunner_DryRunWritesNothing(t *testing.T) {
	r, dir := newTestRunner(t, nil)
	r.DryRun = true

	res, err := r.Run(context.Background(), &fakeCrawler{topic: "Dry", rows: map[string]float64{"202401": 1}})
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.NotEmpty(t, res.Checksum)

	_, statErr := os.Stat(filepath.Join(dir, "dry"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunner_CatalogUnchanged(t *testing.T) {
	ctx := context.Background()

	cat, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "bogo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	r, dir := newTestRunner(t, cat)
	c := &fakeCrawler{topic: "HIBOR", rows: map[string]float64{"202401": 4.5}}

	first, err := r.Run(ctx, c)
	require.NoError(t, err)
	assert.False(t, first.Unchanged)

	r.writer = export.NewWriter(dir, func() time.Time { return fixedNow().AddDate(0, 0, 1) })

	second, err := r.Run(ctx, c)
	require.NoError(t, err)
	assert.True(t, second.Unchanged)
	assert.Equal(t, first.Checksum, second.Checksum)
	assert.Equal(t, first.Path, second.Path)

	_, statErr := os.Stat(filepath.Join(dir, "hibor", "20240518.csv"))
	assert.True(t, os.IsNotExist(statErr), "unchanged run must not write a snapshot")

	versions, err := cat.Versions(ctx, "hibor")
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	c.rows["202402"] = 4.6

	third, err := r.Run(ctx, c)
	require.NoError(t, err)
	assert.False(t, third.Unchanged)
	assert.Equal(t, filepath.Join(dir, "hibor", "20240518.csv"), third.Path)
}

func TestRunner_UnchangedButSnapshotMissing(t *testing.T) {
	ctx := context.Background()

	cat, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "bogo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	r, _ := newTestRunner(t, cat)
	c := &fakeCrawler{topic: "HIBOR", rows: map[string]float64{"202401": 4.5}}

	first, err := r.Run(ctx, c)
	require.NoError(t, err)
	require.NoError(t, os.Remove(first.Path))

	second, err := r.Run(ctx, c)
	require.NoError(t, err)
	assert.False(t, second.Unchanged)

	_, statErr := os.Stat(second.Path)
	assert.NoError(t, statErr)
}

func TestRunner_RunAllIsolatesFailures(t *testing.T) {
	r, dir := newTestRunner(t, nil)

	results, err := r.RunAll(context.Background(), []Crawler{
		&fakeCrawler{topic: "Broken", crawlErr: errUpstream},
		&fakeCrawler{topic: "Healthy", rows: map[string]float64{"202401": 1}},
	})
	require.ErrorIs(t, err, errUpstream)
	require.Len(t, results, 2)

	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	_, statErr := os.Stat(filepath.Join(dir, "healthy", "20240517.csv"))
	assert.NoError(t, statErr)

	s := Summarize(results)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Succeeded)
	assert.Contains(t, s.Failures, "Broken")
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeCrawler{topic: "HIBOR"}, &fakeCrawler{topic: "HK GDP Growth"}))

	err := reg.Register(&fakeCrawler{topic: "hibor"})
	assert.ErrorIs(t, err, ErrDuplicateTopic)

	c, err := reg.Get("hk_gdp_growth")
	require.NoError(t, err)
	assert.Equal(t, "HK GDP Growth", c.Info().Topic)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTopic)

	all, err := reg.Select()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"HIBOR", "HK GDP Growth"}, reg.Topics())
}
