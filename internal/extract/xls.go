package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
)

// oleSignature opens every compound-file document, BIFF8 workbooks included.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// IsLegacyWorkbook reports whether data is a pre-2007 binary (.xls) workbook.
func IsLegacyWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, oleSignature)
}

// legacyRows reads one sheet of a BIFF8 workbook as raw cell text. An empty
// sheet name selects the first sheet. Formula cells read as blank.
func legacyRows(data []byte, sheet string) (name string, rows [][]string, err error) {
	// the reader slices record offsets straight from the stream
	defer func() {
		if r := recover(); r != nil {
			name, rows, err = "", nil, fmt.Errorf("%w: corrupt legacy workbook: %v", ErrStructuralExtraction, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: cannot open legacy workbook: %w", ErrStructuralExtraction, err)
	}

	if wb.GetNumberSheets() == 0 {
		return "", nil, fmt.Errorf("%w: legacy workbook has no sheets", ErrStructuralExtraction)
	}

	names := make([]string, 0, wb.GetNumberSheets())

	for i := 0; i < wb.GetNumberSheets(); i++ {
		s, err := wb.GetSheet(i)
		if err != nil {
			return "", nil, fmt.Errorf("%w: sheet %d: %w", ErrStructuralExtraction, i, err)
		}

		names = append(names, s.GetName())
		if sheet != "" && s.GetName() != sheet {
			continue
		}

		for _, r := range s.GetRows() {
			var row []string
			for _, c := range r.GetCols() {
				row = append(row, c.GetString())
			}

			rows = append(rows, row)
		}

		return s.GetName(), rows, nil
	}

	return "", nil, fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, sheet, strings.Join(names, ", "))
}
