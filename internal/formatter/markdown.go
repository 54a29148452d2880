// Package formatter renders tables as aligned markdown for terminal previews.
package formatter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"bogoinsight/internal/table"
	"bogoinsight/pkg/utils"
)

// maxCellRunes caps the width of a preview cell.
const maxCellRunes = 48

var text = utils.NewStringHelper()

// Preview renders the first limit rows of t as an aligned markdown table.
// A limit of zero or less renders every row.
func Preview(t *table.Table, limit int) string {
	keys := t.Keys()
	shown := len(keys)

	if limit > 0 && limit < shown {
		shown = limit
	}

	header := append([]string{t.IndexName()}, t.Columns()...)
	rows := [][]string{header, nil}

	for _, key := range keys[:shown] {
		rec, _ := t.Row(key)

		row := make([]string, 0, len(header))
		row = append(row, cell(key))

		for _, col := range t.Columns() {
			row = append(row, cell(rec[col]))
		}

		rows = append(rows, row)
	}

	out := strings.Join(alignTable(rows, 1), "\n")

	if hidden := len(keys) - shown; hidden > 0 {
		out += fmt.Sprintf("\n\n... %d more rows", hidden)
	}

	return out
}

func cell(v table.Value) string {
	s := text.TruncateString(text.NormalizeWhitespace(v.String()), maxCellRunes)

	return strings.ReplaceAll(s, "|", `\|`)
}

// Align re-pads every markdown table in content so that columns line up by
// display width. Other lines are left alone.
func Align(content string) string {
	lines := strings.Split(content, "\n")

	var (
		formatted   []string
		tableBuffer []string
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formatted = append(formatted, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formatted = append(formatted, line)
	}

	if len(tableBuffer) > 0 {
		formatted = append(formatted, processTable(tableBuffer)...)
	}

	return strings.Join(formatted, "\n")
}

func processTable(rows []string) []string {
	// A header without separator is not a table we can format.
	if len(rows) < 2 {
		return rows
	}

	cells := make([][]string, 0, len(rows))

	for _, row := range rows {
		parts := strings.Split(row, "|")

		if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
			parts = parts[1:]
		}

		if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
			parts = parts[:len(parts)-1]
		}

		row := make([]string, 0, len(parts))
		for _, p := range parts {
			row = append(row, strings.TrimSpace(p))
		}

		cells = append(cells, row)
	}

	separator := -1
	if isSeparator(cells[1]) {
		separator = 1
	}

	return alignTable(cells, separator)
}

func isSeparator(row []string) bool {
	for _, c := range row {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}

	return true
}

// alignTable pads cells to the widest display width per column. The row at
// separator is redrawn as dashes.
func alignTable(rows [][]string, separator int) []string {
	colCount := 0
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}

	widths := make([]int, colCount)

	for r, row := range rows {
		if r == separator {
			continue
		}

		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	// Separators need at least three dashes.
	for i := range widths {
		widths[i] = max(widths[i], 3)
	}

	result := make([]string, 0, len(rows))

	for r, row := range rows {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			if r == separator {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(runewidth.FillRight(content, widths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
