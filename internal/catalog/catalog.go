// Package catalog keeps topic and snapshot-version bookkeeping in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Catalog errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrMissingCategory = errors.New("category is required")
)

const schema = `
CREATE TABLE IF NOT EXISTS topics (
	category           TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	tags               TEXT NOT NULL DEFAULT '',
	source_description TEXT NOT NULL DEFAULT '',
	schedule           TEXT NOT NULL DEFAULT '',
	latest_version_id  TEXT,
	updated_at         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS versions (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL REFERENCES topics(category),
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	col_count  INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS versions_category_created ON versions(category, created_at);
`

// Topic is one crawled dataset.
type Topic struct {
	Category          string    `json:"category"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Tags              []string  `json:"tags"`
	SourceDescription string    `json:"source_description"`
	Schedule          string    `json:"schedule,omitempty"`
	LatestVersionID   string    `json:"latest_version_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Version is one recorded snapshot.
type Version struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// Catalog is a SQLite-backed store.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to apply catalog schema: %w", err)
	}

	return &Catalog{db: db, now: time.Now}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// UpsertTopic inserts or refreshes a topic's static metadata.
func (c *Catalog) UpsertTopic(ctx context.Context, t Topic) error {
	if t.Category == "" {
		return ErrMissingCategory
	}

	_, err := c.db.ExecContext(ctx, `
INSERT INTO topics (category, name, description, tags, source_description, schedule, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(category) DO UPDATE SET
	name = excluded.name,
	description = excluded.description,
	tags = excluded.tags,
	source_description = excluded.source_description,
	schedule = excluded.schedule,
	updated_at = excluded.updated_at`,
		t.Category, t.Name, t.Description, strings.Join(t.Tags, ","), t.SourceDescription, t.Schedule, formatTime(c.now()))
	if err != nil {
		return fmt.Errorf("failed to upsert topic %s: %w", t.Category, err)
	}

	return nil
}

// RecordVersion stores a snapshot and points the topic at it.
func (c *Catalog) RecordVersion(ctx context.Context, v Version) (Version, error) {
	if v.Category == "" {
		return Version{}, ErrMissingCategory
	}

	v.ID = uuid.NewString()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = c.now()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
INSERT INTO versions (id, category, name, path, checksum, row_count, col_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Category, v.Name, v.Path, v.Checksum, v.Rows, v.Columns, formatTime(v.CreatedAt)); err != nil {
		return Version{}, fmt.Errorf("failed to insert version: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE topics SET latest_version_id = ?, updated_at = ? WHERE category = ?`,
		v.ID, formatTime(v.CreatedAt), v.Category)
	if err != nil {
		return Version{}, fmt.Errorf("failed to update topic: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return Version{}, fmt.Errorf("%w: topic %s", ErrNotFound, v.Category)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("failed to commit version: %w", err)
	}

	return v, nil
}

// LatestVersion returns the version the topic currently points at.
func (c *Catalog) LatestVersion(ctx context.Context, category string) (Version, error) {
	row := c.db.QueryRowContext(ctx, `
SELECT v.id, v.category, v.name, v.path, v.checksum, v.row_count, v.col_count, v.created_at
FROM topics t JOIN versions v ON v.id = t.latest_version_id
WHERE t.category = ?`, category)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("%w: latest version of %s", ErrNotFound, category)
	}

	return v, err
}

// Versions lists a category's versions, newest first.
func (c *Catalog) Versions(ctx context.Context, category string) ([]Version, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT id, category, name, path, checksum, row_count, col_count, created_at
FROM versions WHERE category = ? ORDER BY created_at DESC, rowid DESC`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var out []Version

	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, rows.Err()
}

// Topics lists every topic ordered by category.
func (c *Catalog) Topics(ctx context.Context) ([]Topic, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT category, name, description, tags, source_description, schedule, latest_version_id, updated_at
FROM topics ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var out []Topic

	for rows.Next() {
		var (
			t       Topic
			tags    string
			latest  sql.NullString
			updated string
		)

		if err := rows.Scan(&t.Category, &t.Name, &t.Description, &tags, &t.SourceDescription, &t.Schedule, &latest, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}

		if tags != "" {
			t.Tags = strings.Split(tags, ",")
		}

		t.LatestVersionID = latest.String
		t.UpdatedAt = parseTime(updated)
		out = append(out, t)
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(s scanner) (Version, error) {
	var (
		v       Version
		created string
	)

	if err := s.Scan(&v.ID, &v.Category, &v.Name, &v.Path, &v.Checksum, &v.Rows, &v.Columns, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, err
		}

		return Version{}, fmt.Errorf("failed to scan version: %w", err)
	}

	v.CreatedAt = parseTime(created)

	return v, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
