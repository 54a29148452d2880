package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one raw JSON object.
type Record map[string]any

// Records walks path through nested objects and returns the array of
// objects found there. A path element that is a number indexes an array.
func Records(body []byte, path ...string) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrStructuralExtraction, err)
	}

	node, err := walk(root, path)
	if err != nil {
		return nil, err
	}

	items, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", ErrRecordsNotFound, strings.Join(path, "."))
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, strings.Join(path, "."))
	}

	out := make([]Record, 0, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrRecordsNotFound, strings.Join(path, "."), i)
		}

		out = append(out, Record(obj))
	}

	return out, nil
}

// Lookup walks path through a decoded JSON value.
func Lookup(v any, path ...string) (any, error) {
	return walk(v, path)
}

func walk(node any, path []string) (any, error) {
	for i, key := range path {
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[key]
			if !ok {
				return nil, fmt.Errorf("%w: key %q", ErrRecordsNotFound, strings.Join(path[:i+1], "."))
			}

			node = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(n) {
				return nil, fmt.Errorf("%w: index %q", ErrRecordsNotFound, strings.Join(path[:i+1], "."))
			}

			node = n[idx]
		default:
			return nil, fmt.Errorf("%w: %q is not a container", ErrRecordsNotFound, strings.Join(path[:i], "."))
		}
	}

	return node, nil
}

// String renders a field of the record as raw text; absent and null are "".
func (r Record) String(key string) string {
	return Stringify(r[key])
}

// Stringify renders a decoded JSON scalar as raw text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		if len(x) > 0 {
			return Stringify(x[0])
		}

		return ""
	default:
		return fmt.Sprint(x)
	}
}

// RecordGrid lays records out as a grid with the given keys as header.
// Array values contribute their first element.
func RecordGrid(source string, records []Record, keys ...string) *Grid {
	g := &Grid{Source: source, Header: keys, Rows: make([][]string, len(records))}

	for r, rec := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = rec.String(k)
		}

		g.Rows[r] = row
	}

	return g
}
