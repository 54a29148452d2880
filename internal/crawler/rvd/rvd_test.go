package rvd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// publish lays rows out the way the department's workbooks do: a title
// block of skip rows, the data under the given columns, then footer notes.
func publish(t *testing.T, l extract.Layout, rows [][]any) []byte {
	t.Helper()

	cols, err := l.ColumnIndexes()
	require.NoError(t, err)

	f := excelize.NewFile()
	defer f.Close()

	_, err = f.NewSheet(l.Sheet)
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue(l.Sheet, "A1", "Private Domestic - Statistics"))

	for r, row := range rows {
		for i, v := range row {
			if v == nil {
				continue
			}

			name, err := excelize.ColumnNumberToName(cols[i] + 1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(l.Sheet, fmt.Sprintf("%s%d", name, l.SkipRows+r+1), v))
		}
	}

	for i := range l.SkipFooter {
		cell := fmt.Sprintf("A%d", l.SkipRows+len(rows)+i+1)
		require.NoError(t, f.SetCellValue(l.Sheet, cell, fmt.Sprintf("Note %d", i+1)))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf.Bytes()
}

func serve(t *testing.T, body []byte) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv.URL
}

func run(t *testing.T, c *Crawler) *table.Table {
	t.Helper()

	raw, err := c.Crawl(context.Background())
	require.NoError(t, err)

	tbl, err := c.Process(raw, normalizer.NewReport())
	require.NoError(t, err)

	return tbl
}

func cell(t *testing.T, tbl *table.Table, period, column string) table.Value {
	t.Helper()

	key, err := normalizer.ParseDate("period", period)
	require.NoError(t, err)

	v, ok := tbl.Get(key, column)
	require.True(t, ok)

	return v
}

func scraper() *crawler.Scraper {
	return crawler.NewScraper(crawler.ScraperOptions{Timeout: 5 * time.Second})
}

func TestRentalIndex_ForwardFillsYear(t *testing.T) {
	row := func(year any, month int, all float64) []any {
		return []any{year, month, 80.1, 90.2, 100.3, 110.4, 120.5, 95.6, 115.7, all}
	}

	body := publish(t, rentalIndexDefinition.Layout, [][]any{
		row(2023, 11, 100),
		row(nil, 12, 110),
		row(2024, 1, 99),
	})

	tbl := run(t, RentalIndex(scraper(), serve(t, body)))

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "2023-12-01", tbl.Keys()[1].String())
	assert.Equal(t, "house rental A, < 40m^2 (idx 1999=100)", tbl.Columns()[0])
	assert.Equal(t, RentalGrowthColumn, tbl.Columns()[len(tbl.Columns())-1])

	assert.True(t, cell(t, tbl, "2023-11-01", RentalGrowthColumn).IsMissing())

	g, _ := cell(t, tbl, "2023-12-01", RentalGrowthColumn).Float()
	assert.InDelta(t, 10.0, g, 1e-9)

	g, _ = cell(t, tbl, "2024-01-01", RentalGrowthColumn).Float()
	assert.InDelta(t, -10.0, g, 1e-9)
}

func TestRentalIndex_LegacyWorkbook(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "his_data_3.xls"))
	require.NoError(t, err)

	tbl := run(t, RentalIndex(scraper(), serve(t, body)))

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "2023-12-01", tbl.Keys()[1].String())

	all, _ := cell(t, tbl, "2023-12-01", "house rental all (idx 1999=100)").Float()
	assert.InDelta(t, 110.0, all, 1e-9)

	small, _ := cell(t, tbl, "2024-01-01", "house rental A, < 40m^2 (idx 1999=100)").Float()
	assert.InDelta(t, 80.1, small, 1e-9)

	g, _ := cell(t, tbl, "2024-01-01", RentalGrowthColumn).Float()
	assert.InDelta(t, -10.0, g, 1e-9)
}

func TestVacancy_RestoresPercentages(t *testing.T) {
	row := func(year int, all float64, share float64) []any {
		return []any{year, 10, 0.01, 20, 0.02, 30, 0.03, 40, 0.04, 50, 0.05, all, share}
	}

	body := publish(t, vacancyDefinition.Layout, [][]any{
		row(2022, 1000, 0.043),
		row(2023, 1100, 0.0385),
	})

	tbl := run(t, Vacancy(scraper(), serve(t, body)))

	share, _ := cell(t, tbl, "2023-01-01", "house vacancy all (%)").Float()
	assert.InDelta(t, 3.85, share, 1e-9)

	count, _ := cell(t, tbl, "2023-01-01", "house vacancy all (num)").Float()
	assert.InDelta(t, 1100, count, 1e-9)

	g, _ := cell(t, tbl, "2023-01-01", VacancyGrowthColumn).Float()
	assert.InDelta(t, 10.0, g, 1e-9)
}

func TestTakeUp_FailsFast(t *testing.T) {
	t.Run("layout shift", func(t *testing.T) {
		f := excelize.NewFile()
		_, err := f.NewSheet(takeUpDefinition.Layout.Sheet)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(takeUpDefinition.Layout.Sheet, "C3", 2023))

		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		_, err = TakeUp(scraper(), serve(t, buf.Bytes())).Crawl(context.Background())
		assert.ErrorIs(t, err, extract.ErrLayoutShift)
	})

	t.Run("text in a numeric column", func(t *testing.T) {
		body := publish(t, takeUpDefinition.Layout, [][]any{
			{2022, 100, 200, 300},
			{2023, "see note", 210, 310},
		})

		c := TakeUp(scraper(), serve(t, body))

		raw, err := c.Crawl(context.Background())
		require.NoError(t, err)

		_, err = c.Process(raw, normalizer.NewReport())
		assert.ErrorIs(t, err, normalizer.ErrTypeCoercion)
	})

	t.Run("wrong sheet", func(t *testing.T) {
		body := publish(t, extract.Layout{Sheet: "Other", Columns: []string{"C"}, SkipRows: 1, Names: []string{"year"}}, [][]any{{2023}})

		_, err := TakeUp(scraper(), serve(t, body)).Crawl(context.Background())
		assert.ErrorIs(t, err, extract.ErrSheetNotFound)
	})
}

func TestProcess_RejectsWrongShape(t *testing.T) {
	_, err := TakeUp(nil, "").Process(&crawler.RawData{}, normalizer.NewReport())
	assert.ErrorIs(t, err, crawler.ErrUnexpectedRawData)
}
