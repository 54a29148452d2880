// Package export writes processed tables as dated CSV snapshots, one
// directory per category, and reads them back.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bogoinsight/internal/table"
)

// SnapshotLayout names snapshot files; ISO ordering makes the greatest name the latest.
const SnapshotLayout = "20060102"

// Export errors.
var (
	ErrEmptyCategory = errors.New("category is required")
	ErrNilTable      = errors.New("table is nil")
)

// CategoryName derives the directory name of a topic.
func CategoryName(topic string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_")
}

// Writer commits full-replace snapshots under BaseDir.
type Writer struct {
	baseDir string
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter creates a writer rooted at baseDir. A nil now uses time.Now.
func NewWriter(baseDir string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}

	return &Writer{baseDir: baseDir, now: now, locks: make(map[string]*sync.Mutex)}
}

func (w *Writer) lock(category string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[category]
	if !ok {
		l = &sync.Mutex{}
		w.locks[category] = l
	}

	return l
}

// Export encodes t fully in memory, then replaces everything in the
// category directory with a single <YYYYMMDD>.csv. Nothing on disk is
// touched if encoding fails.
func (w *Writer) Export(category string, t *table.Table) (string, error) {
	if category == "" {
		return "", ErrEmptyCategory
	}

	data, err := Encode(t)
	if err != nil {
		return "", err
	}

	return w.Commit(category, data)
}

// Commit writes already-encoded snapshot bytes with the same full-replace rules.
func (w *Writer) Commit(category string, data []byte) (string, error) {
	if category == "" {
		return "", ErrEmptyCategory
	}

	if err := checkCategory(category); err != nil {
		return "", err
	}

	l := w.lock(category)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.baseDir, "."+category+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot: %w", err)
	}

	dir := filepath.Join(w.baseDir, category)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, w.now().Format(SnapshotLayout)+".csv")
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	return path, nil
}

// Encode renders t as CSV: the index column first, then every column.
func Encode(t *table.Table) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTable
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	cols := t.Columns()

	if err := w.Write(append([]string{t.IndexName()}, cols...)); err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	for _, key := range t.Keys() {
		row, _ := t.Row(key)
		record := make([]string, 0, len(cols)+1)
		record = append(record, key.String())

		for _, c := range cols {
			record = append(record, row[c].String())
		}

		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to encode row %q: %w", key.String(), err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode CSV: %w", err)
	}

	return buf.Bytes(), nil
}
