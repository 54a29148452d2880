package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bogoinsight/pkg/utils"
)

// HeaderSeparator joins the levels of a multi-row table header.
const HeaderSeparator = " - "

var text = utils.NewStringHelper()

// ParseHTML parses a document.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid HTML: %w", ErrStructuralExtraction, err)
	}

	return doc, nil
}

// HTMLText returns the visible text of an HTML fragment, such as a table
// cell that wraps a model name in a link.
func HTMLText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return text.CollapseASCIISpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return text.CollapseASCIISpace(fragment)
	}

	return text.CollapseASCIISpace(doc.Text())
}

// StripFootnotes removes reference markers and edit links so they never
// leak into cell text or headings.
func StripFootnotes(doc *goquery.Document) {
	doc.Find("sup, .reference, .mw-editsection").Remove()
}

// Section finds the heading block for the first id that exists. Both the
// legacy span.mw-headline markup and the div.mw-heading wrapper are handled;
// the returned selection is the element whose siblings hold the section body.
func Section(doc *goquery.Document, ids ...string) (*goquery.Selection, error) {
	heading, _, err := section(doc, ids)

	return heading, err
}

func section(doc *goquery.Document, ids []string) (*goquery.Selection, string, error) {
	for _, id := range ids {
		target := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("id")

			return v == id
		}).First()

		if target.Length() == 0 {
			continue
		}

		return headingBlock(target), id, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrSectionNotFound, strings.Join(ids, ", "))
}

func headingBlock(s *goquery.Selection) *goquery.Selection {
	if !isHeading(s) {
		if p := s.ParentFiltered("h1, h2, h3, h4, h5, h6"); p.Length() > 0 {
			s = p
		}
	}

	if p := s.ParentFiltered("div.mw-heading"); p.Length() > 0 {
		s = p
	}

	return s
}

func isHeading(s *goquery.Selection) bool {
	return s.Is("h1, h2, h3, h4, h5, h6")
}

// HeadingLevel returns 1-6 for a heading or heading wrapper, 0 otherwise.
func HeadingLevel(s *goquery.Selection) int {
	h := s
	if s.Is("div.mw-heading") {
		h = s.ChildrenFiltered("h1, h2, h3, h4, h5, h6").First()
	}

	if !isHeading(h) {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(h), "h"))
	if err != nil {
		return 0
	}

	return n
}

// HeadingText returns the visible title of a heading block.
func HeadingText(s *goquery.Selection) string {
	if hl := s.Find(".mw-headline"); hl.Length() > 0 {
		return text.CollapseASCIISpace(hl.First().Text())
	}

	return text.CollapseASCIISpace(s.Text())
}

// TableAfter returns the first table sibling following heading.
func TableAfter(heading *goquery.Selection) (*goquery.Selection, error) {
	tbl := heading.NextAllFiltered("table").First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("%w: after %q", ErrTableNotFound, HeadingText(heading))
	}

	return tbl, nil
}

// SectionTable combines Section, TableAfter and ParseTable.
func SectionTable(doc *goquery.Document, ids ...string) (*Grid, error) {
	heading, id, err := section(doc, ids)
	if err != nil {
		return nil, err
	}

	tbl, err := TableAfter(heading)
	if err != nil {
		return nil, err
	}

	g, err := ParseTable(tbl)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", id, err)
	}

	g.Source = id

	return g, nil
}

type carry struct {
	text      string
	remaining int
}

// ParseTable expands rowspan and colspan into a rectangular grid. Leading
// rows made only of th cells form the header; when there are several, each
// column's levels are joined with HeaderSeparator and consecutive identical
// levels collapse into one.
func ParseTable(tbl *goquery.Selection) (*Grid, error) {
	tbl.Find("br").ReplaceWithHtml(" ")
	tbl.Find(`[style*="display:none"], [style*="display: none"]`).Remove()

	trs := tbl.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr").AddSelection(tbl.ChildrenFiltered("tr"))

	var (
		rows      [][]string
		headerEnd = -1
		pending   = map[int]carry{}
		width     int
	)

	trs.Each(func(r int, tr *goquery.Selection) {
		var out []string

		headerOnly := true
		cells := tr.ChildrenFiltered("th, td")
		next := 0

		for col := 0; ; col++ {
			if c, ok := pending[col]; ok {
				out = append(out, c.text)

				if c.remaining--; c.remaining == 0 {
					delete(pending, col)
				} else {
					pending[col] = c
				}

				continue
			}

			if next >= cells.Length() {
				if len(pending) == 0 || !hasPendingAfter(pending, col) {
					break
				}

				out = append(out, "")

				continue
			}

			cell := cells.Eq(next)
			next++

			if goquery.NodeName(cell) == "td" {
				headerOnly = false
			}

			value := text.CollapseASCIISpace(cell.Text())
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")

			for k := 0; k < colspan; k++ {
				out = append(out, value)

				if rowspan > 1 {
					pending[col+k] = carry{text: value, remaining: rowspan - 1}
				}
			}

			col += colspan - 1
		}

		if headerOnly && cells.Length() > 0 && headerEnd == r-1 {
			headerEnd = r
		}

		if len(out) > width {
			width = len(out)
		}

		rows = append(rows, out)
	})

	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	if headerEnd < 0 {
		headerEnd = 0
	}

	for i := range rows {
		rows[i] = pad(rows[i], width)
	}

	header := flattenHeader(rows[:headerEnd+1], width)
	body := rows[headerEnd+1:]

	if len(body) == 0 {
		return nil, ErrEmptyTable
	}

	return &Grid{Header: header, Rows: body}, nil
}

func hasPendingAfter(pending map[int]carry, col int) bool {
	for c := range pending {
		if c > col {
			return true
		}
	}

	return false
}

func spanAttr(cell *goquery.Selection, name string) int {
	v, ok := cell.Attr(name)
	if !ok {
		return 1
	}

	n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(v, `"'`)))
	if err != nil || n < 1 {
		return 1
	}

	return n
}

func flattenHeader(levels [][]string, width int) []string {
	header := make([]string, width)

	for c := range width {
		var parts []string

		for _, level := range levels {
			v := level[c]
			if v == "" || (len(parts) > 0 && parts[len(parts)-1] == v) {
				continue
			}

			parts = append(parts, v)
		}

		header[c] = strings.Join(parts, HeaderSeparator)
	}

	return header
}
