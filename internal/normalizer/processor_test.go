package normalizer

import (
	"errors"
	"strings"
	"testing"

	"bogoinsight/internal/extract"
	"bogoinsight/internal/table"
)

func TestNewProcessor(t *testing.T) {
	if NewProcessor() == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func gpuGrid() *extract.Grid {
	return &extract.Grid{
		Header: []string{"Model", "Launch", "Core config", "TDP (W)", "Notes"},
		Rows: [][]string{
			{"GeForce GTX 1080", "May 27, 2016", "2560:160:64", "180", "x"},
			{"GeForce GTX 1060", "July 19, 2016", "1280:80:48", "120", "y"},
			{"GeForce GT 1010", "Unlaunched", "256:16:16", "No", "z"},
		},
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	spec := GridSpec{
		Keep: func(row map[string]string) bool { return row["Launch"] != "Unlaunched" },
		Columns: MustMapping("columns",
			Pair{"Model", "model"},
			Pair{"Launch", "period"},
			Pair{"Core config", "CUDA cores"},
			Pair{"TDP (W)", "TDP (W)"},
		),
		Types: map[string]Coercion{
			"period":     AsDate,
			"CUDA cores": NumberBefore(":"),
			"TDP (W)":    AsNumber,
		},
	}

	batch, err := p.Process(gpuGrid(), spec)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	wantCols := []string{"model", "period", "CUDA cores", "TDP (W)"}
	if strings.Join(batch.Columns, "|") != strings.Join(wantCols, "|") {
		t.Errorf("Columns = %v, want %v", batch.Columns, wantCols)
	}

	if len(batch.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(batch.Records))
	}

	if !batch.Records[0]["CUDA cores"].Equal(table.Number(2560)) {
		t.Errorf("CUDA cores = %v, want 2560", batch.Records[0]["CUDA cores"])
	}

	if _, ok := batch.Records[0]["Notes"]; ok {
		t.Error("unmapped column Notes passed through")
	}

	tbl, err := batch.Table("model")
	if err != nil {
		t.Fatalf("Table error: %v", err)
	}

	if tbl.Len() != 2 || tbl.IndexName() != "model" {
		t.Errorf("table = %d rows indexed by %q", tbl.Len(), tbl.IndexName())
	}
}

func TestProcessor_CoercionFailureIsFatal(t *testing.T) {
	g := gpuGrid()
	g.Rows[0][3] = "one-eighty"

	_, err := NewProcessor().Process(g, GridSpec{
		Columns: MustMapping("columns", Pair{"Model", "model"}, Pair{"TDP (W)", "TDP (W)"}),
		Types:   map[string]Coercion{"TDP (W)": AsNumber},
	})
	if !errors.Is(err, ErrTypeCoercion) {
		t.Errorf("error = %v, want ErrTypeCoercion", err)
	}
}

func TestBatch_TableDuplicateKey(t *testing.T) {
	b := &Batch{
		Columns: []string{"model", "x"},
		Records: []table.Record{
			{"model": table.Text("a"), "x": table.Number(1)},
			{"model": table.Text("a"), "x": table.Number(2)},
		},
	}

	if _, err := b.Table("model"); !errors.Is(err, table.ErrDuplicateKey) {
		t.Errorf("error = %v, want ErrDuplicateKey", err)
	}

	if _, err := b.Table("name"); !errors.Is(err, ErrMissingIndexColumn) {
		t.Errorf("error = %v, want ErrMissingIndexColumn", err)
	}
}

func TestScaled(t *testing.T) {
	v, err := Scaled(100, 2)("vacancy A (%)", "0.04567")
	if err != nil {
		t.Fatalf("Scaled error: %v", err)
	}

	if !v.Equal(table.Number(4.57)) {
		t.Errorf("Scaled = %v, want 4.57", v)
	}
}

func TestMapping(t *testing.T) {
	if _, err := NewMapping("sv", Pair{"BL_RATE", "a"}, Pair{"BL_RATE", "b"}); !errors.Is(err, ErrDuplicateMappingKey) {
		t.Errorf("error = %v, want ErrDuplicateMappingKey", err)
	}

	m := MustMapping("sv", Pair{"BL_RATE", "best lending rate"}, Pair{"S_DEP_RATE", "savings deposit rate"})
	report := NewReport()

	if got, ok := m.Map("BL_RATE", report); !ok || got != "best lending rate" {
		t.Errorf("Map(BL_RATE) = %q, %v", got, ok)
	}

	m.Map("NEW_CODE", report)
	m.Map("NEW_CODE", report)

	entries := report.Entries()
	if len(entries) != 1 || entries[0].Code != "NEW_CODE" || entries[0].Count != 2 {
		t.Errorf("report entries = %v", entries)
	}

	if got := strings.Join(m.Values(), ","); got != "best lending rate,savings deposit rate" {
		t.Errorf("Values = %q", got)
	}
}

func TestLabelRules(t *testing.T) {
	rules := MustLabelRules("{metric} ({unit})", map[string]string{
		"time deposit rate": "{metric} {sub} ({unit})",
	})

	tests := []struct {
		metric string
		parts  map[string]string
		want   string
	}{
		{"best lending rate", map[string]string{"sub": "1M", "unit": "% p.a."}, "best lending rate (% p.a.)"},
		{"time deposit rate", map[string]string{"sub": "1M", "unit": "% p.a."}, "time deposit rate 1M (% p.a.)"},
		{"exchange rate USD to HKD", map[string]string{"unit": ""}, "exchange rate USD to HKD"},
	}

	for _, tt := range tests {
		if got := rules.Build(tt.metric, tt.parts); got != tt.want {
			t.Errorf("Build(%q) = %q, want %q", tt.metric, got, tt.want)
		}
	}

	if _, err := NewLabelRules("{unit}", nil); !errors.Is(err, ErrInvalidLabelRule) {
		t.Errorf("error = %v, want ErrInvalidLabelRule", err)
	}
}
