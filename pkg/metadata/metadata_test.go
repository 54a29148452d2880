package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCalculateHash_LineEndings(t *testing.T) {
	a := CalculateHash([]byte("period,x\n2023-03-01,1\n"))
	b := CalculateHash([]byte("period,x\r\n2023-03-01,1\r\n"))

	if a != b {
		t.Errorf("hash differs across line endings: %s vs %s", a, b)
	}

	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}

func TestDescribe(t *testing.T) {
	m := Describe([]byte("period,x\n"), 0, 1, time.Date(2024, 5, 17, 8, 0, 0, 0, time.FixedZone("HKT", 8*3600)))

	if m.CreatedAt.Location() != time.UTC || m.CreatedAt.Hour() != 0 {
		t.Errorf("CreatedAt = %v, want UTC midnight", m.CreatedAt)
	}

	if !m.Same(Describe([]byte("period,x\n"), 0, 1, time.Now())) {
		t.Error("identical content reported as different")
	}

	if m.Same(Metadata{}) {
		t.Error("empty metadata reported as same")
	}
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20240517.csv")
	if err := os.WriteFile(path, []byte("period,x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ok, err := Verify(path, CalculateHash([]byte("period,x\n")))
	if err != nil || !ok {
		t.Errorf("Verify = %v, %v; want true, nil", ok, err)
	}

	if _, err := Verify(path, "deadbeef"); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify mismatch error = %v", err)
	}

	if _, err := Verify(path, ""); !errors.Is(err, ErrNoHashFound) {
		t.Errorf("Verify empty hash error = %v", err)
	}
}
