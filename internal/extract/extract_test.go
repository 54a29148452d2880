package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const gpuPage = `<html><body><div class="mw-parser-output">
<h2><span class="mw-headline" id="GeForce_10_series">GeForce 10 series<sup class="reference">[1]</sup></span><span class="mw-editsection">[edit]</span></h2>
<p>intro</p>
<table class="wikitable">
<tr><th rowspan="2">Model</th><th rowspan="2">Launch</th><th colspan="2">Clock speeds</th><th rowspan="2">TDP (W)</th></tr>
<tr><th>Base core (MHz)</th><th>Boost core (MHz)</th></tr>
<tr><th>GeForce GTX 1080<sup>[a]</sup></th><td>May 27, 2016</td><td>1607</td><td>1733</td><td rowspan="2">180</td></tr>
<tr><th>GeForce GTX 1070</th><td>June 10, 2016</td><td colspan="2">1506</td></tr>
</table>
<table><tr><th>Other</th></tr><tr><td>x</td></tr></table>
<div class="mw-heading mw-heading2"><h2 id="Volta_series">Volta series</h2></div>
<table class="wikitable">
<tr><th>Model</th><th>Model</th></tr>
<tr><td>Titan V</td><td>GV100</td></tr>
</table>
</div></body></html>`

func TestSectionTable_LegacyHeadingMarkup(t *testing.T) {
	doc, err := ParseHTML([]byte(gpuPage))
	require.NoError(t, err)
	StripFootnotes(doc)

	g, err := SectionTable(doc, "GeForce_10_series")
	require.NoError(t, err)

	assert.Equal(t, "GeForce_10_series", g.Source)
	assert.Equal(t, []string{
		"Model",
		"Launch",
		"Clock speeds - Base core (MHz)",
		"Clock speeds - Boost core (MHz)",
		"TDP (W)",
	}, g.Header)
	require.Len(t, g.Rows, 2)
	assert.Equal(t, []string{"GeForce GTX 1080", "May 27, 2016", "1607", "1733", "180"}, g.Rows[0])
	assert.Equal(t, []string{"GeForce GTX 1070", "June 10, 2016", "1506", "1506", "180"}, g.Rows[1])
}

func TestSectionTable_WrappedHeadingMarkup(t *testing.T) {
	doc, err := ParseHTML([]byte(gpuPage))
	require.NoError(t, err)

	g, err := SectionTable(doc, "Missing_id", "Volta_series")
	require.NoError(t, err)

	// a single header row with repeated names is kept as is
	assert.Equal(t, []string{"Model", "Model"}, g.Header)
	assert.Equal(t, [][]string{{"Titan V", "GV100"}}, g.Rows)
}

func TestSection_NotFound(t *testing.T) {
	doc, err := ParseHTML([]byte(gpuPage))
	require.NoError(t, err)

	_, err = Section(doc, "RTX_50_series")
	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.ErrorIs(t, err, ErrStructuralExtraction)
}

func TestHeadingLevelAndText(t *testing.T) {
	doc, err := ParseHTML([]byte(gpuPage))
	require.NoError(t, err)
	StripFootnotes(doc)

	h, err := Section(doc, "GeForce_10_series")
	require.NoError(t, err)
	assert.Equal(t, 2, HeadingLevel(h))
	assert.Equal(t, "GeForce 10 series", HeadingText(h))

	w, err := Section(doc, "Volta_series")
	require.NoError(t, err)
	assert.Equal(t, 2, HeadingLevel(w))
	assert.Equal(t, "Volta series", HeadingText(w))
}

func TestFlattenHeader_IdenticalLevelsCollapse(t *testing.T) {
	got := flattenHeader([][]string{{"Memory", "Memory"}, {"Memory", "Size (GB)"}}, 2)
	assert.Equal(t, []string{"Memory", "Memory - Size (GB)"}, got)
}

func TestRecords(t *testing.T) {
	body := []byte(`{"header":{"status":"ok"},"dataSet":[{"period":"202303","sv":"BL_RATE","figure":5.75},{"period":"202306","sv":"BL_RATE","figure":6.00}]}`)

	recs, err := Records(body, "dataSet")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "202303", recs[0].String("period"))
	assert.Equal(t, "5.75", recs[0].String("figure"))
	assert.Equal(t, "6.00", recs[1].String("figure"))
	assert.Equal(t, "", recs[1].String("absent"))
}

func TestRecords_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		path []string
		want error
	}{
		{"missing key", `{"other":[]}`, []string{"dataSet"}, ErrRecordsNotFound},
		{"not an array", `{"dataSet":{}}`, []string{"dataSet"}, ErrRecordsNotFound},
		{"empty", `{"dataSet":[]}`, []string{"dataSet"}, ErrEmptyTable},
		{"invalid json", `{`, []string{"dataSet"}, ErrStructuralExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Records([]byte(tt.body), tt.path...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecords_NestedPathWithIndex(t *testing.T) {
	body := []byte(`{"data":[{"value":{"rows":[{"Model":"a"}]}}]}`)

	recs, err := Records(body, "data", "0", "value", "rows")
	require.NoError(t, err)
	assert.Equal(t, "a", recs[0].String("Model"))
}

func TestCSV(t *testing.T) {
	g, err := CSV([]byte("\xef\xbb\xbfRank,Model,Overall Acc\n1,GPT-4o,85.2%\n2,Claude,\"80.1%\"\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Rank", "Model", "Overall Acc"}, g.Header)
	assert.Equal(t, "80.1%", g.Cell(g.Rows[1], "Overall Acc"))
}

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	return buf.Bytes()
}

func TestSheetRange(t *testing.T) {
	data := workbook(t, "Monthly", [][]any{
		{"title"},
		{"Year", "Month", "skip", "Index"},
		{2023, 1, "x", 180.5},
		{"", 2, "x", 181},
		{},
		{"note 1"},
	})

	g, err := SheetRange(data, Layout{
		Sheet:      "Monthly",
		Columns:    []string{"A:B", "D"},
		SkipRows:   2,
		SkipFooter: 1,
		Names:      []string{"year", "month", "all"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "month", "all"}, g.Header)
	assert.Equal(t, [][]string{{"2023", "1", "180.5"}, {"", "2", "181"}}, g.Rows)
}

func TestSheetRange_FailsFast(t *testing.T) {
	data := workbook(t, "Monthly", [][]any{{"a"}, {"b"}})

	_, err := SheetRange(data, Layout{Sheet: "Quarterly", Columns: []string{"A"}, Names: []string{"a"}})
	assert.ErrorIs(t, err, ErrSheetNotFound)

	_, err = SheetRange(data, Layout{Sheet: "Monthly", Columns: []string{"A"}, SkipRows: 2, Names: []string{"a"}})
	assert.ErrorIs(t, err, ErrLayoutShift)

	_, err = SheetRange(data, Layout{Sheet: "Monthly", Columns: []string{"A", "B"}, Names: []string{"a"}})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = SheetRange([]byte("not a workbook"), Layout{Sheet: "Monthly", Columns: []string{"A"}, Names: []string{"a"}})
	assert.ErrorIs(t, err, ErrStructuralExtraction)
}

func TestSheetRange_LegacyWorkbook(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "monthly.xls"))
	require.NoError(t, err)
	require.True(t, IsLegacyWorkbook(data))

	l := Layout{
		Sheet:      "Monthly  按月",
		Columns:    []string{"A:B", "D"},
		SkipRows:   2,
		SkipFooter: 1,
		Names:      []string{"year", "month", "all"},
	}

	g, err := SheetRange(data, l)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2023", "1", "180.5"}, {"", "2", "181"}}, g.Rows)

	modern, err := SheetRange(workbook(t, l.Sheet, [][]any{
		{"title"},
		{"Year", "Month", "skip", "Index"},
		{2023, 1, "x", 180.5},
		{"", 2, "x", 181},
		{},
		{"note 1"},
	}), l)
	require.NoError(t, err)
	assert.Equal(t, modern, g)

	l.Sheet = "Quarterly"
	_, err = SheetRange(data, l)
	require.ErrorIs(t, err, ErrSheetNotFound)
	assert.ErrorContains(t, err, "Notes, Monthly  按月")

	_, err = Workbook(data, "")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestSheetRange_CorruptLegacyWorkbook(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "monthly.xls"))
	require.NoError(t, err)

	l := Layout{Sheet: "Monthly  按月", Columns: []string{"A"}, Names: []string{"a"}}

	for name, input := range map[string][]byte{
		"garbage":   append(append([]byte(nil), oleSignature...), "not a workbook"...),
		"truncated": data[:600],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := SheetRange(input, l)
			assert.ErrorIs(t, err, ErrStructuralExtraction)
		})
	}
}

func TestWorkbook(t *testing.T) {
	data := workbook(t, "Sheet1", [][]any{
		{"name", "series lead", "parameters (B)"},
		{"GPT-4", "TRUE", 1760},
	})

	g, err := Workbook(data, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "series lead", "parameters (B)"}, g.Header)
	assert.Equal(t, "GPT-4", g.Cell(g.Rows[0], "name"))
	assert.Equal(t, "1760", g.Cell(g.Rows[0], "parameters (B)"))
}

func TestHTMLText(t *testing.T) {
	assert.Equal(t, "GPT-4o-2024-05-13", HTMLText(`<a target="_blank" href="https://openai.com/">GPT-4o-2024-05-13</a>`))
	assert.Equal(t, "Claude 3 Opus", HTMLText("  Claude 3   Opus "))
}

func TestRecordGrid(t *testing.T) {
	recs, err := Records([]byte(`{"Main":[{"Method":["GPT-4o, 20240513","https://openai.com"],"MMMU_VAL":69.2}]}`), "Main")
	require.NoError(t, err)

	g := RecordGrid("Main", recs, "Method", "MMMU_VAL", "MathVista")
	assert.Equal(t, []string{"GPT-4o, 20240513", "69.2", ""}, g.Rows[0])
}
