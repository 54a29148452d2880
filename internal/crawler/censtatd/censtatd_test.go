package censtatd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reshape"
	"bogoinsight/internal/table"
)

func obs(period, sv, svDesc, figure string, extra ...string) extract.Record {
	r := extract.Record{
		"period": period,
		"sv":     sv,
		"svDesc": svDesc,
		"figure": json.Number(figure),
		"freq":   "M",
	}

	for i := 0; i+1 < len(extra); i += 2 {
		r[extra[i]] = extra[i+1]
	}

	return r
}

func value(t *testing.T, tbl *table.Table, period, column string) table.Value {
	t.Helper()

	p, err := normalizer.ParseDate("period", period)
	require.NoError(t, err)

	v, ok := tbl.Get(p, column)
	require.True(t, ok, "no cell %s/%s", period, column)

	return v
}

func TestProcess_InterestRate(t *testing.T) {
	c := InterestRate(nil, "")
	report := normalizer.NewReport()

	tbl, err := c.Process(&crawler.RawData{Records: []extract.Record{
		obs("202303", "BL_RATE", "(Percent for annum)", "5.75"),
		obs("202306", "BL_RATE", "(Percent for annum)", "6.00"),
		obs("202303", "T_DEP_RATE", "(Percent for annum)", "1.2", "DEP_P_T", "1M"),
		obs("2023", "BL_RATE", "(Percent for annum)", "6.00", "freq", "Y"),
		obs("202303", "MORTGAGE", "(Percent for annum)", "3.1"),
	}}, report)
	require.NoError(t, err)

	assert.Equal(t, "period", tbl.IndexName())
	assert.Equal(t, []string{"best lending rate (% p.a.)", "time deposit rate 1M (% p.a.)"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "2023-03-01", tbl.Keys()[0].String())

	v := value(t, tbl, "2023-06-01", "best lending rate (% p.a.)")
	f, _ := v.Float()
	assert.InDelta(t, 6.0, f, 1e-9)
	assert.True(t, value(t, tbl, "2023-06-01", "time deposit rate 1M (% p.a.)").IsMissing())

	require.Equal(t, 1, report.Len())
	assert.Equal(t, "MORTGAGE", report.Entries()[0].Code)
}

func TestProcess_HouseholdQuarterEndsAndGrowth(t *testing.T) {
	c := HouseholdCount(nil, "")

	tbl, err := c.Process(&crawler.RawData{Records: []extract.Record{
		obs("202303", "DH", "No. ('000)", "2600.0", "TENUREDesc", "Total"),
		obs("202304", "DH", "No. ('000)", "2610.0", "TENUREDesc", "Total"),
		obs("202306", "DH", "No. ('000)", "2626.0", "TENUREDesc", "Total"),
		obs("202306", "DH", "Percentage share (%)", "48.5", "TENUREDesc", "Sole tenants"),
	}}, normalizer.NewReport())
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"households sole tenants (%)", "households total ('000)", HouseholdGrowthColumn}, tbl.Columns())
	assert.True(t, value(t, tbl, "2023-03-01", HouseholdGrowthColumn).IsMissing())

	g, _ := value(t, tbl, "2023-06-01", HouseholdGrowthColumn).Float()
	assert.InDelta(t, 1.0, g, 1e-9)
}

func TestProcess_ForeignInvestmentBlankCountry(t *testing.T) {
	c := ForeignInvestment(nil, "")

	tbl, err := c.Process(&crawler.RawData{Records: []extract.Record{
		obs("2021", "DI_INFLOW", "HK$ billion", "1100.5", "COUNTRY", ""),
		obs("2021", "DI_INFLOW", "HK$ billion", "400.1", "COUNTRY", "CN"),
	}}, normalizer.NewReport())
	require.NoError(t, err)

	assert.Equal(t, []string{"direct investment inflow CN (HK$B)", "direct investment inflow all (HK$B)"}, tbl.Columns())
	assert.Equal(t, "2021-01-01", tbl.Keys()[0].String())
}

func TestProcess_PopulationNetMovementLabels(t *testing.T) {
	c := PopulationGrowth(nil, "")

	tbl, err := c.Process(&crawler.RawData{Records: []extract.Record{
		obs("202306", "NM", "('000)", "20.1", "TYPE_INFLOW", "one-way"),
		obs("202306", "NM", "('000)", "50.3", "TYPE_INFLOW", ""),
		obs("202306", "PGR", "(%)", "0.3", "TYPE_INFLOW", ""),
	}}, normalizer.NewReport())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"net movement one-way ('000)",
		"net movement total ('000)",
		"population growth rate (%)",
	}, tbl.Columns())
}

func TestProcess_Failures(t *testing.T) {
	c := HIBOR(nil, "")

	_, err := c.Process(&crawler.RawData{Records: []extract.Record{
		obs("202303", "SET_RATE", "Rates at end of period(percent per annum)", "4.1", "MATURITY", "1M"),
		obs("202303", "SET_RATE", "Rates at end of period(percent per annum)", "4.3", "MATURITY", "1M"),
	}}, normalizer.NewReport())
	require.ErrorIs(t, err, reshape.ErrPivotCollision)

	_, err = c.Process(&crawler.RawData{Records: []extract.Record{
		obs("March 2023", "SET_RATE", "Rates at end of period(percent per annum)", "4.1", "MATURITY", "1M"),
	}}, normalizer.NewReport())
	require.ErrorIs(t, err, normalizer.ErrTypeCoercion)

	_, err = c.Process(&crawler.RawData{}, normalizer.NewReport())
	require.ErrorIs(t, err, crawler.ErrUnexpectedRawData)
}

func TestCrawl_PostsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())

		var q Query
		assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("query")), &q))
		assert.Equal(t, "340-45022", q.ID)
		assert.Equal(t, []string{"0N", "1W", "1M", "3M", "6M"}, q.CV["MATURITY"])

		_, _ = w.Write([]byte(`{"dataSet":[
			{"period":"202401","sv":"SET_RATE","svDesc":"Rates at end of period(percent per annum)","MATURITY":"1M","figure":4.65,"freq":"M"}
		]}`))
	}))
	defer srv.Close()

	c := HIBOR(crawler.NewScraper(crawler.ScraperOptions{Timeout: time.Second}), srv.URL)

	raw, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, raw.Records, 1)

	tbl, err := c.Process(raw, normalizer.NewReport())
	require.NoError(t, err)
	assert.Equal(t, []string{"HIBOR 1M (% p.a.)"}, tbl.Columns())
}

func TestCrawl_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{"header":{}}`))
	}))
	defer srv.Close()

	f := crawler.NewScraper(crawler.ScraperOptions{Timeout: time.Second})

	_, err := GDP(f, srv.URL+"/broken").Crawl(context.Background())
	require.ErrorIs(t, err, crawler.ErrFetchFailure)

	var fe *crawler.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Contains(t, fe.Body, "maintenance")

	_, err = GDP(f, srv.URL).Crawl(context.Background())
	require.ErrorIs(t, err, extract.ErrStructuralExtraction)
}

func TestAll_UniqueTopics(t *testing.T) {
	reg := crawler.NewRegistry()
	require.NoError(t, reg.Register(All(nil, "")...))
	assert.Equal(t, 7, reg.Len())
}
