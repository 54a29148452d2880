package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"bogoinsight/internal/table"
)

// Validation errors.
var (
	ErrNilTable         = errors.New("processed table is nil")
	ErrMissingIndexName = errors.New("processed table has no index name")
	ErrNoRows           = errors.New("processed table contains no rows")
	ErrNoColumns        = errors.New("processed table contains no columns")
	ErrBlankColumn      = errors.New("processed table has a blank column name")
	ErrIndexAsColumn    = errors.New("index name repeated as a column")
	ErrMissingIndexKey  = errors.New("processed table has a missing index key")
)

// Validator checks a processed table before it is exported.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns the first structural defect found, or nil. Columns that
// hold no values at all are returned separately since they are legal but
// usually mean an upstream header moved.
func (v *Validator) Validate(t *table.Table) (empty []string, err error) {
	if t == nil {
		return nil, ErrNilTable
	}

	if strings.TrimSpace(t.IndexName()) == "" {
		return nil, ErrMissingIndexName
	}

	if t.Len() == 0 {
		return nil, ErrNoRows
	}

	cols := t.Columns()
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	for i, c := range cols {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("%w at position %d", ErrBlankColumn, i)
		}

		if c == t.IndexName() {
			return nil, fmt.Errorf("%w: %q", ErrIndexAsColumn, c)
		}
	}

	for i, key := range t.Keys() {
		if key.IsMissing() {
			return nil, fmt.Errorf("%w at row %d", ErrMissingIndexKey, i)
		}
	}

	for _, c := range cols {
		values, _ := t.Column(c)
		if allMissing(values) {
			empty = append(empty, c)
		}
	}

	return empty, nil
}

func allMissing(values []table.Value) bool {
	for _, v := range values {
		if !v.IsMissing() {
			return false
		}
	}

	return true
}
