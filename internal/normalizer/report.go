package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Unmapped is one raw code that had no entry in a mapping table.
type Unmapped struct {
	Mapping string
	Code    string
	Count   int
}

func (u Unmapped) String() string {
	return fmt.Sprintf("%s[%q] x%d", u.Mapping, u.Code, u.Count)
}

// Report collects unmapped categorical values for one run so they can be
// surfaced once instead of per row.
type Report struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{counts: make(map[string]map[string]int)}
}

// Unmapped records one miss.
func (r *Report) Unmapped(mapping, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts[mapping] == nil {
		r.counts[mapping] = make(map[string]int)
	}

	r.counts[mapping][code]++
}

// Len returns the number of distinct (mapping, code) misses.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, codes := range r.counts {
		n += len(codes)
	}

	return n
}

// Entries returns the misses sorted by mapping then code.
func (r *Report) Entries() []Unmapped {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Unmapped

	for mapping, codes := range r.counts {
		for code, n := range codes {
			out = append(out, Unmapped{Mapping: mapping, Code: code, Count: n})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Mapping != out[j].Mapping {
			return out[i].Mapping < out[j].Mapping
		}

		return out[i].Code < out[j].Code
	})

	return out
}

// ByMapping groups the codes per mapping name, each list sorted.
func (r *Report) ByMapping() map[string][]string {
	out := make(map[string][]string)
	for _, e := range r.Entries() {
		out[e.Mapping] = append(out[e.Mapping], e.Code)
	}

	return out
}

func (r *Report) String() string {
	entries := r.Entries()
	parts := make([]string, len(entries))

	for i, e := range entries {
		parts[i] = e.String()
	}

	return strings.Join(parts, ", ")
}
