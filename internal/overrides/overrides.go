// Package overrides reads the hand-curated LLM workbook whose values take
// priority over anything crawled.
package overrides

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reconcile"
	"bogoinsight/internal/table"
)

// DefaultPath is where the workbook lives relative to the working directory.
const DefaultPath = "data/llm_additional_data.xlsx"

// NameColumn keys every row of the workbook.
const NameColumn = "name"

// ErrMissingNameColumn is a workbook without a name header.
var ErrMissingNameColumn = errors.New("override workbook has no name column")

// Flag columns hold booleans; the period column holds dates.
var (
	flagColumns = map[string]bool{"series lead": true, "series first": true}
	dateColumns = map[string]bool{"period": true}
)

// Load reads the workbook at path.
func Load(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}

	return t, nil
}

// Parse reads the first sheet. Blank names are skipped and the first row
// of a repeated name wins.
func Parse(data []byte) (*table.Table, error) {
	g, err := extract.Workbook(data, "")
	if err != nil {
		return nil, err
	}

	if g.Index(NameColumn) < 0 {
		return nil, ErrMissingNameColumn
	}

	var columns []string

	for _, h := range g.Header {
		if h != "" && h != NameColumn {
			columns = append(columns, h)
		}
	}

	records := make([]table.Record, 0, g.Len())

	for _, row := range g.Rows {
		rec := table.Record{NameColumn: text(g.Cell(row, NameColumn))}

		for _, c := range columns {
			v, err := cell(c, g.Cell(row, c))
			if err != nil {
				return nil, err
			}

			rec[c] = v
		}

		records = append(records, rec)
	}

	return reconcile.FromRecords(NameColumn, NameColumn, columns, records, nil, nil)
}

func text(raw string) table.Value {
	v, _ := normalizer.AsText(NameColumn, raw)

	return v
}

// cell types a raw cell value by column.
func cell(column, raw string) (table.Value, error) {
	s := normalizer.Clean(raw)
	if s == "" {
		return table.Missing(), nil
	}

	switch {
	case flagColumns[column]:
		switch strings.ToLower(s) {
		case "1", "true", "yes":
			return table.Bool(true), nil
		case "0", "false", "no":
			return table.Bool(false), nil
		}

		return table.Missing(), &normalizer.CoercionError{Field: column, Raw: raw, Kind: "bool"}
	case dateColumns[column]:
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			d, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return table.Missing(), &normalizer.CoercionError{Field: column, Raw: raw, Kind: "date"}
			}

			return table.Date(d), nil
		}

		return normalizer.ParseDate(column, s)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return table.Number(f), nil
	}

	return table.Text(s), nil
}
