package normalizer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"bogoinsight/internal/table"
)

// ErrTypeCoercion matches every CoercionError.
var ErrTypeCoercion = errors.New("type coercion failure")

// CoercionError is a cell that did not parse after sentinel substitution.
type CoercionError struct {
	Field string
	Raw   string
	Kind  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s in field %q", e.Raw, e.Kind, e.Field)
}

// Is lets errors.Is(err, ErrTypeCoercion) match.
func (e *CoercionError) Is(target error) bool { return target == ErrTypeCoercion }

// sentinels are tokens that mean "no value" rather than zero.
var sentinels = map[string]bool{
	"":        true,
	"no":      true,
	"unknown": true,
	"n/a":     true,
	"na":      true,
	"tba":     true,
	"tbd":     true,
	"?":       true,
	"-":       true,
	"--":      true,
}

// dateLayouts are tried in order by Date.
var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
	"2006",
}

// Transformer turns raw string cells into typed values.
type Transformer struct {
	cleaner   func() transform.Transformer
	quantity  *regexp.Regexp
	bracketed *regexp.Regexp
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	dashes := runes.Map(func(r rune) rune {
		switch r {
		case '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015', '\u2212':
			return '-'
		case '\u00a0', '\u2009', '\u202f':
			return ' '
		}

		return r
	})

	return &Transformer{
		cleaner: func() transform.Transformer {
			return transform.Chain(norm.NFKC, runes.Remove(runes.Predicate(isInvisible)), dashes)
		},
		quantity:  regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:e[-+]?\d+)?)\s*(trillion|billion|million|t|b|m)?(?:\s*tokens?)?$`),
		bracketed: regexp.MustCompile(`\s*\[[^\]]*\]`),
	}
}

func isInvisible(r rune) bool {
	return r == '\u00ad' || r == '\u200b' || r == '\ufeff'
}

// Clean normalizes encoding artifacts and collapses whitespace.
func (t *Transformer) Clean(s string) string {
	out, _, err := transform.String(t.cleaner(), s)
	if err != nil {
		out = s
	}

	out = t.bracketed.ReplaceAllString(out, "")

	return strings.Join(strings.FieldsFunc(out, unicode.IsSpace), " ")
}

// IsSentinel reports whether a cleaned cell means "no value".
func (t *Transformer) IsSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

// Number parses a numeric cell. Each separator in splitOn cuts the cell and
// keeps the leading part, so "3584:224:96" with ":" yields 3584. A range
// such as "250-300" keeps its first bound; units after the first space and
// thousands separators are ignored.
func (t *Transformer) Number(field, raw string, splitOn ...string) (table.Value, error) {
	s := t.Clean(raw)
	if t.IsSentinel(s) {
		return table.Missing(), nil
	}

	for _, sep := range splitOn {
		s, _, _ = strings.Cut(s, sep)
		s = strings.TrimSpace(s)
	}

	if first, _, ok := strings.Cut(s, " "); ok {
		s = first
	}

	s = strings.TrimLeft(s, "~$≈")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")

	s = lowerBound(s)

	if t.IsSentinel(s) {
		return table.Missing(), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return table.Missing(), &CoercionError{Field: field, Raw: raw, Kind: "number"}
	}

	return table.Number(f), nil
}

// lowerBound cuts a range at its first dash. A leading sign and the sign of
// an exponent ("1.5e-3") are not range dashes.
func lowerBound(s string) string {
	for i := 1; i < len(s); i++ {
		if s[i] == '-' && s[i-1] != 'e' && s[i-1] != 'E' {
			return s[:i]
		}
	}

	return s
}

// Quantity parses a token count expressed in billions. A bare number is
// already in billions; "trillion", "billion" and "million" or their T, B and
// M abbreviations scale it, optionally followed by "tokens". Any other unit
// fails, so "1.4 trillion tokens" yields 1400 while "40GB" is an error.
func (t *Transformer) Quantity(field, raw string) (table.Value, error) {
	s := strings.ToLower(t.Clean(raw))
	if t.IsSentinel(s) {
		return table.Missing(), nil
	}

	m := t.quantity.FindStringSubmatch(strings.ReplaceAll(strings.TrimLeft(s, "~$≈"), ",", ""))
	if m == nil {
		return table.Missing(), &CoercionError{Field: field, Raw: raw, Kind: "quantity"}
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return table.Missing(), &CoercionError{Field: field, Raw: raw, Kind: "quantity"}
	}

	scale := 1.0

	switch m[2] {
	case "trillion", "t":
		scale = 1000
	case "million", "m":
		scale = 0.001
	}

	return table.Number(Round(f*scale, 6)), nil
}

// Date parses a calendar date in any of the layouts seen upstream.
func (t *Transformer) Date(field, raw string) (table.Value, error) {
	s := t.Clean(raw)
	if t.IsSentinel(s) {
		return table.Missing(), nil
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return table.Date(d), nil
		}
	}

	return table.Missing(), &CoercionError{Field: field, Raw: raw, Kind: "date"}
}

// Period parses a period code with a fixed layout, e.g. "200601" for YYYYMM.
func (t *Transformer) Period(field, raw, layout string) (table.Value, error) {
	d, err := time.Parse(layout, strings.TrimSpace(raw))
	if err != nil {
		return table.Missing(), &CoercionError{Field: field, Raw: raw, Kind: "period " + layout}
	}

	return table.Date(d), nil
}

// Text returns the cleaned cell, or missing for sentinel tokens.
func (t *Transformer) Text(_, raw string) (table.Value, error) {
	s := t.Clean(raw)
	if t.IsSentinel(s) {
		return table.Missing(), nil
	}

	return table.Text(s), nil
}

var defaultTransformer = NewTransformer()

// Clean normalizes a cell with the default transformer.
func Clean(s string) string { return defaultTransformer.Clean(s) }

// ParseNumber parses a numeric cell with the default transformer.
func ParseNumber(field, raw string, splitOn ...string) (table.Value, error) {
	return defaultTransformer.Number(field, raw, splitOn...)
}

// ParseQuantity parses a billions-scaled amount with the default transformer.
func ParseQuantity(field, raw string) (table.Value, error) {
	return defaultTransformer.Quantity(field, raw)
}

// ParseDate parses a date cell with the default transformer.
func ParseDate(field, raw string) (table.Value, error) {
	return defaultTransformer.Date(field, raw)
}

// ParsePeriod parses a fixed-layout period code.
func ParsePeriod(field, raw, layout string) (table.Value, error) {
	return defaultTransformer.Period(field, raw, layout)
}

// Round rounds half away from zero to the given number of decimals.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))

	return math.Round(f*p) / p
}
