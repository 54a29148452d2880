package reshape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bogoinsight/internal/table"
)

func month(y int, m time.Month) table.Value {
	return table.Date(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
}

func TestPivot_BestLendingRate(t *testing.T) {
	records := []table.Record{
		{"period": month(2023, 6), "label": table.Text("best lending rate (% p.a.)"), "figure": table.Number(6.00)},
		{"period": month(2023, 3), "label": table.Text("best lending rate (% p.a.)"), "figure": table.Number(5.75)},
	}

	tbl, err := Pivot(records, "period", "label", "figure")
	require.NoError(t, err)

	assert.Equal(t, "period", tbl.IndexName())
	assert.Equal(t, []string{"best lending rate (% p.a.)"}, tbl.Columns())
	assert.Equal(t, []table.Value{month(2023, 3), month(2023, 6)}, tbl.Keys())

	v, ok := tbl.Get(month(2023, 3), "best lending rate (% p.a.)")
	require.True(t, ok)
	assert.True(t, v.Equal(table.Number(5.75)))
}

func TestPivot_EveryCellMatchesItsRecord(t *testing.T) {
	var records []table.Record

	labels := []string{"HIBOR 1M (% p.a.)", "HIBOR 3M (% p.a.)", "HIBOR 0N (% p.a.)"}
	for m := time.January; m <= time.December; m++ {
		for i, l := range labels {
			records = append(records, table.Record{
				"period": month(2022, m),
				"label":  table.Text(l),
				"figure": table.Number(float64(m)*10 + float64(i)),
			})
		}
	}

	tbl, err := Pivot(records, "period", "label", "figure")
	require.NoError(t, err)
	assert.Equal(t, 12, tbl.Len())
	assert.Equal(t, []string{"HIBOR 0N (% p.a.)", "HIBOR 1M (% p.a.)", "HIBOR 3M (% p.a.)"}, tbl.Columns())

	for _, rec := range records {
		got, ok := tbl.Get(rec["period"], rec["label"].String())
		require.True(t, ok)
		assert.True(t, got.Equal(rec["figure"]))
	}
}

func TestPivot_Collision(t *testing.T) {
	records := []table.Record{
		{"period": month(2023, 3), "label": table.Text("x"), "figure": table.Number(1)},
		{"period": month(2023, 3), "label": table.Text("x"), "figure": table.Number(2)},
	}

	_, err := Pivot(records, "period", "label", "figure")
	require.ErrorIs(t, err, ErrPivotCollision)

	var ce *CollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "x", ce.Column)
	assert.Equal(t, "2023-03-01", ce.Index)
}

func TestPivot_IdenticalDuplicateAccepted(t *testing.T) {
	records := []table.Record{
		{"period": month(2023, 3), "label": table.Text("x"), "figure": table.Number(1)},
		{"period": month(2023, 3), "label": table.Text("x"), "figure": table.Number(1)},
	}

	tbl, err := Pivot(records, "period", "label", "figure")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestPivot_MissingField(t *testing.T) {
	_, err := Pivot([]table.Record{{"label": table.Text("x")}}, "period", "label", "figure")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestPctChange_Law(t *testing.T) {
	values := []float64{100, 110, 99, 99, 120.5}

	tbl := table.New("period")
	for i, v := range values {
		tbl.Set(month(2020+i, 1), "households total ('000)", table.Number(v))
	}

	require.NoError(t, PctChange(tbl, "households total ('000)", "household growth rate (%)", 2))

	growth, err := tbl.Column("household growth rate (%)")
	require.NoError(t, err)
	assert.True(t, growth[0].IsMissing())

	want := []float64{0, 10, -10, 0, 21.72}
	for i := 1; i < len(values); i++ {
		f, ok := growth[i].Float()
		require.True(t, ok)
		assert.InDelta(t, want[i], f, 1e-9, "row %d", i)
	}
}

func TestPctChange_MissingNeighbours(t *testing.T) {
	tbl := table.New("period")
	tbl.Set(month(2020, 1), "v", table.Number(1))
	tbl.Set(month(2020, 2), "v", table.Missing())
	tbl.Set(month(2020, 3), "v", table.Number(2))

	require.NoError(t, PctChange(tbl, "v", "g", 2))

	growth, _ := tbl.Column("g")
	for i, g := range growth {
		assert.True(t, g.IsMissing(), "row %d", i)
	}
}

func TestPctChange_TextColumn(t *testing.T) {
	tbl := table.New("period")
	tbl.Set(month(2020, 1), "v", table.Text("a"))
	tbl.Set(month(2020, 2), "v", table.Text("b"))

	assert.ErrorIs(t, PctChange(tbl, "v", "g", 2), ErrNotNumeric)
}

func TestSuffixDuplicates(t *testing.T) {
	got := SuffixDuplicates([]string{"Tesla K40", "Tesla K80", "Tesla K40", "Tesla K40"})
	assert.Equal(t, []string{"Tesla K40", "Tesla K80", "Tesla K40 v2", "Tesla K40 v3"}, got)
}
