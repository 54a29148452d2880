package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"bogoinsight/internal/table"
)

// Store errors.
var (
	ErrNoSnapshot   = errors.New("no snapshot for category")
	ErrEmptyCSV     = errors.New("snapshot has no header")
	ErrBadCategory  = errors.New("invalid category name")
	ErrRaggedRecord = errors.New("snapshot row width differs from header")
)

// Snapshot is one dated CSV file.
type Snapshot struct {
	Category string    `json:"category"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Date     time.Time `json:"date"`
	Size     int64     `json:"size"`
}

// Store reads the snapshot tree written by Writer.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// BaseDir returns the root directory.
func (s *Store) BaseDir() string { return s.baseDir }

// ListCategories returns category directories that hold at least one snapshot.
func (s *Store) ListCategories() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", s.baseDir, err)
	}

	var out []string

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		snaps, err := s.Snapshots(e.Name())
		if err != nil {
			return nil, err
		}

		if len(snaps) > 0 {
			out = append(out, e.Name())
		}
	}

	sort.Strings(out)

	return out, nil
}

// Snapshots lists a category's snapshots, oldest first.
func (s *Store) Snapshots(category string) ([]Snapshot, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.baseDir, category)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []Snapshot

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".csv" {
			continue
		}

		snap := Snapshot{Category: category, Name: name, Path: filepath.Join(dir, name)}
		if d, err := time.Parse(SnapshotLayout, strings.TrimSuffix(name, ".csv")); err == nil {
			snap.Date = d
		}

		if info, err := e.Info(); err == nil {
			snap.Size = info.Size()
		}

		out = append(out, snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// Latest returns the lexicographically greatest snapshot of a category.
func (s *Store) Latest(category string) (Snapshot, error) {
	snaps, err := s.Snapshots(category)
	if err != nil {
		return Snapshot{}, err
	}

	if len(snaps) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, category)
	}

	return snaps[len(snaps)-1], nil
}

// LoadLatest reads the latest snapshot of a category.
func (s *Store) LoadLatest(category string) (*table.Table, Snapshot, error) {
	snap, err := s.Latest(category)
	if err != nil {
		return nil, Snapshot{}, err
	}

	t, err := Load(snap.Path)
	if err != nil {
		return nil, Snapshot{}, err
	}

	return t, snap, nil
}

// Load reads a snapshot file.
func Load(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return Decode(data)
}

// Decode parses snapshot CSV. Empty cells are missing, numbers, booleans
// and ISO dates regain their kind, everything else is text.
func Decode(data []byte) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyCSV
	}

	header := rows[0]
	t := table.New(header[0])
	cols := header[1:]

	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}

	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d", ErrRaggedRecord, i+1)
		}

		values := make([]table.Value, len(cols))
		for j := range cols {
			values[j] = ParseCell(row[j+1])
		}

		if err := t.AppendValues(ParseCell(row[0]), cols, values); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// checkCategory rejects names that would escape or hide in the base dir.
func checkCategory(category string) error {
	if category == "" || strings.ContainsAny(category, `/\`) || strings.HasPrefix(category, ".") {
		return fmt.Errorf("%w: %q", ErrBadCategory, category)
	}

	return nil
}

// canonicalNumber is the shape Value.String writes for a finite number.
var canonicalNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ParseCell restores the kind of a CSV cell. Only canonical decimals become
// numbers, so text such as "007" or "NaN" survives a round trip.
func ParseCell(s string) table.Value {
	if s == "" {
		return table.Missing()
	}

	if canonicalNumber.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return table.Number(f)
		}
	}

	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return table.Bool(b)
	}

	if len(s) == len(table.DateLayout) {
		if d, err := time.Parse(table.DateLayout, s); err == nil {
			return table.Date(d)
		}
	}

	return table.Text(s)
}
