// Package table holds the wide-format table every crawler produces.
package table

import (
	"strconv"
	"time"
)

// DateLayout is the CSV rendering of date cells and period indexes.
const DateLayout = "2006-01-02"

// Kind identifies what a Value carries.
type Kind int

// Value kinds.
const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is missing.
type Value struct {
	kind Kind
	num  float64
	text string
	date time.Time
	flag bool
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Date wraps a calendar date; the time of day is dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()

	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Bool wraps a flag.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Kind reports the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Time returns the date payload.
func (v Value) Time() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// Str returns the text payload.
func (v Value) Str() (string, bool) {
	return v.text, v.kind == KindText
}

// Flag returns the boolean payload.
func (v Value) Flag() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// String renders the value the way it is written to CSV.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DateLayout)
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindDate:
		return v.date.Equal(o.date)
	case KindBool:
		return v.flag == o.flag
	default:
		return true
	}
}

// Less orders values of the same kind; missing sorts after everything else.
// Values of different kinds are ordered by kind.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		if v.kind == KindMissing {
			return false
		}

		if o.kind == KindMissing {
			return true
		}

		return v.kind < o.kind
	}

	switch v.kind {
	case KindNumber:
		return v.num < o.num
	case KindText:
		return v.text < o.text
	case KindDate:
		return v.date.Before(o.date)
	case KindBool:
		return !v.flag && o.flag
	default:
		return false
	}
}

// Record is one long-format observation keyed by field name.
type Record map[string]Value
