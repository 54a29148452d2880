package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Mapping construction errors.
var (
	ErrDuplicateMappingKey = errors.New("duplicate mapping key")
	ErrEmptyMappingName    = errors.New("mapping name is required")
	ErrInvalidLabelRule    = errors.New("label template must contain {metric}")
)

// Pair is one raw -> canonical entry.
type Pair struct {
	From string
	To   string
}

// Mapping is an immutable, ordered raw -> canonical lookup table.
type Mapping struct {
	name  string
	pairs []Pair
	index map[string]string
}

// NewMapping validates that no raw key repeats.
func NewMapping(name string, pairs ...Pair) (*Mapping, error) {
	if name == "" {
		return nil, ErrEmptyMappingName
	}

	m := &Mapping{
		name:  name,
		pairs: make([]Pair, 0, len(pairs)),
		index: make(map[string]string, len(pairs)),
	}

	for _, p := range pairs {
		if _, dup := m.index[p.From]; dup {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateMappingKey, p.From, name)
		}

		m.index[p.From] = p.To
		m.pairs = append(m.pairs, p)
	}

	return m, nil
}

// MustMapping is NewMapping for package-level tables; it panics on duplicates.
func MustMapping(name string, pairs ...Pair) *Mapping {
	m, err := NewMapping(name, pairs...)
	if err != nil {
		panic(err)
	}

	return m
}

// Identity builds a mapping where every key maps to itself.
func Identity(name string, keys ...string) *Mapping {
	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{From: k, To: k}
	}

	return MustMapping(name, pairs...)
}

// Name returns the mapping's name as used in reports.
func (m *Mapping) Name() string { return m.name }

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.pairs) }

// Lookup returns the canonical value for a raw key.
func (m *Mapping) Lookup(raw string) (string, bool) {
	v, ok := m.index[raw]

	return v, ok
}

// Map is Lookup that records a miss on report.
func (m *Mapping) Map(raw string, report *Report) (string, bool) {
	v, ok := m.index[raw]
	if !ok && report != nil {
		report.Unmapped(m.name, raw)
	}

	return v, ok
}

// Contains reports whether raw is a key.
func (m *Mapping) Contains(raw string) bool {
	_, ok := m.index[raw]

	return ok
}

// Keys returns raw keys in declaration order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		keys[i] = p.From
	}

	return keys
}

// Values returns canonical values in declaration order.
func (m *Mapping) Values() []string {
	values := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		values[i] = p.To
	}

	return values
}

var placeholder = regexp.MustCompile(`\{[a-z]+\}`)

// LabelRules builds column labels from a metric name and its sub-dimensions.
// Templates use {metric} plus any named part such as {sub} or {unit}; a part
// that is empty leaves no trace, and "()" left behind by an empty unit is removed.
type LabelRules struct {
	fallback string
	byMetric map[string]string
}

// NewLabelRules validates the templates.
func NewLabelRules(fallback string, byMetric map[string]string) (*LabelRules, error) {
	if !strings.Contains(fallback, "{metric}") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabelRule, fallback)
	}

	rules := make(map[string]string, len(byMetric))

	for metric, tmpl := range byMetric {
		if !strings.Contains(tmpl, "{metric}") {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidLabelRule, tmpl, metric)
		}

		rules[metric] = tmpl
	}

	return &LabelRules{fallback: fallback, byMetric: rules}, nil
}

// MustLabelRules panics on an invalid template.
func MustLabelRules(fallback string, byMetric map[string]string) *LabelRules {
	r, err := NewLabelRules(fallback, byMetric)
	if err != nil {
		panic(err)
	}

	return r
}

// Build renders the label for metric.
func (r *LabelRules) Build(metric string, parts map[string]string) string {
	tmpl, ok := r.byMetric[metric]
	if !ok {
		tmpl = r.fallback
	}

	args := []string{"{metric}", metric}
	for k, v := range parts {
		args = append(args, "{"+k+"}", v)
	}

	label := strings.NewReplacer(args...).Replace(tmpl)
	label = placeholder.ReplaceAllString(label, "")
	label = strings.ReplaceAll(label, "()", "")

	return strings.Join(strings.Fields(label), " ")
}
