// Package metadata describes snapshot files: content hash, shape and time.
package metadata

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"
)

// Metadata verification errors.
var (
	ErrNoHashFound  = errors.New("no hash to verify against")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Metadata contains the snapshot status information.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	Hash      string    `json:"hash"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Bytes     int       `json:"bytes"`
}

// CalculateHash computes the SHA-256 hash of the content. Line endings are
// normalized first so a snapshot rewritten with CRLF hashes the same.
func CalculateHash(content []byte) string {
	clean := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	hash := sha256.Sum256(clean)

	return hex.EncodeToString(hash[:])
}

// Describe builds the metadata of encoded snapshot content.
func Describe(content []byte, rows, columns int, createdAt time.Time) Metadata {
	return Metadata{
		CreatedAt: createdAt.UTC(),
		Hash:      CalculateHash(content),
		Rows:      rows,
		Columns:   columns,
		Bytes:     len(content),
	}
}

// Same reports whether two descriptions hash identically.
func (m Metadata) Same(o Metadata) bool {
	return m.Hash != "" && m.Hash == o.Hash
}

// Verify checks that the file at path still matches hash.
func Verify(path, hash string) (bool, error) {
	if hash == "" {
		return false, ErrNoHashFound
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	calculated := CalculateHash(content)
	if calculated != hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, hash, calculated)
	}

	return true, nil
}
