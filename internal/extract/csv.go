package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// CSV reads a comma-separated body whose first row is the header.
func CSV(body []byte) (*Grid, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid CSV: %w", ErrStructuralExtraction, err)
	}

	if len(rows) < 2 {
		return nil, ErrEmptyTable
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	g := &Grid{Header: header}
	for _, row := range rows[1:] {
		g.Rows = append(g.Rows, pad(row, len(header))[:len(header)])
	}

	return g, nil
}
