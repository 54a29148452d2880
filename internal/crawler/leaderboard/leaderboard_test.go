package leaderboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

func scraper() *crawler.Scraper {
	return crawler.NewScraper(crawler.ScraperOptions{Timeout: 5 * time.Second})
}

func run(t *testing.T, c crawler.Crawler, report *normalizer.Report) *table.Table {
	t.Helper()

	raw, err := c.Crawl(context.Background())
	require.NoError(t, err)

	tbl, err := c.Process(raw, report)
	require.NoError(t, err)

	return tbl
}

func number(t *testing.T, tbl *table.Table, name, column string) float64 {
	t.Helper()

	v, ok := tbl.Get(table.Text(name), column)
	require.True(t, ok, "no cell %s/%s", name, column)

	f, ok := v.Float()
	require.True(t, ok, "%s/%s is %s", name, column, v.Kind())

	return f
}

func names(tbl *table.Table) []string {
	var out []string
	for _, k := range tbl.Keys() {
		out = append(out, k.String())
	}

	return out
}

func TestBFCL(t *testing.T) {
	csv := "Rank,Model,Overall Acc,Cost ($ Per 1k Function Calls),Latency Mean (s),Organization\n" +
		"1,GPT-4o-2024-05-13 (FC),85.2%,1.42,1.31,OpenAI\n" +
		"2,Claude-2.1 (Prompt),70.5%,11.1,4.02,Anthropic\n" +
		"3,Mystery-7B (FC),12.0%,0.1,N/A,Unknown\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csv))
	}))
	defer srv.Close()

	report := normalizer.NewReport()
	tbl := run(t, NewBFCL(scraper(), srv.URL), report)

	assert.Equal(t, NameColumn, tbl.IndexName())
	assert.Equal(t, []string{"GPT-4o", "Claude 2.1"}, names(tbl))
	assert.Equal(t, []string{"BFCL", "function call cost ($/K calls)", "function call avg latency (s)"}, tbl.Columns())
	assert.InDelta(t, 85.2, number(t, tbl, "GPT-4o", "BFCL"), 1e-9)
	assert.InDelta(t, 11.1, number(t, tbl, "Claude 2.1", "function call cost ($/K calls)"), 1e-9)

	assert.Equal(t, map[string][]string{"bfcl models": {"Mystery-7B (FC)"}}, report.ByMapping())
}

func TestBFCL_MissingColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Model,Accuracy\nGPT-4o-2024-05-13 (FC),85.2%\n"))
	}))
	defer srv.Close()

	c := NewBFCL(scraper(), srv.URL)

	raw, err := c.Crawl(context.Background())
	require.NoError(t, err)

	_, err = c.Process(raw, normalizer.NewReport())
	assert.ErrorIs(t, err, extract.ErrColumnNotFound)
}

func gradioServer(t *testing.T, stream string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /call/update_leaderboard_and_plots", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"event_id":"ev42"}`))
	})
	mux.HandleFunc("GET /call/update_leaderboard_and_plots/ev42", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(stream))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestLMSYS(t *testing.T) {
	srv := gradioServer(t, "event: generating\ndata: null\n\n"+
		`event: complete`+"\n"+
		`data: [{"value":{"headers":["Rank","Model","Arena Elo","Votes"],"data":[`+
		`[1,"<a target=\"_blank\" href=\"https://openai.com\">GPT-4o-2024-05-13</a>",1287,"50000"],`+
		`[2,"Claude 3 Opus",1248,"90000"],`+
		`[3,"Some-New-Model",1100,"200"]]}}]`+"\n\n")

	report := normalizer.NewReport()
	tbl := run(t, NewLMSYS(scraper(), srv.URL), report)

	assert.Equal(t, []string{"GPT-4o", "Claude 3 Opus"}, names(tbl))
	assert.Equal(t, []string{"LMSYS Arena Elo"}, tbl.Columns())
	assert.InDelta(t, 1287, number(t, tbl, "GPT-4o", "LMSYS Arena Elo"), 1e-9)
	assert.Equal(t, 1, report.Len())
}

func TestLMSYS_ErrorEvent(t *testing.T) {
	srv := gradioServer(t, "event: error\ndata: null\n\n")

	_, err := NewLMSYS(scraper(), srv.URL).Crawl(context.Background())
	assert.ErrorIs(t, err, ErrGradioEvent)
}

func TestLMSYS_NoDataframe(t *testing.T) {
	srv := gradioServer(t, "event: complete\ndata: [{\"value\":null}]\n\n")

	_, err := NewLMSYS(scraper(), srv.URL).Crawl(context.Background())
	assert.ErrorIs(t, err, extract.ErrStructuralExtraction)
}

const (
	rankingJSON = `{"OverallTable":[
		{"model":"GPT-4o-20240513","Average":"77.0","Average_CN":76.3,"Average_EN":77.8},
		{"model":"Qwen1.5-110B-Chat","Average":70.1,"Average_CN":"-","Average_EN":69}
	]}`
	visionJSON = `{"Main":[
		{"Method":["GPT-4o, 20240513","https://openai.com"],"MMMU_VAL":69.2,"MathVista":61.3},
		{"Method":["Claude-3V Opus",""],"MMMU_VAL":54.9,"MathVista":45.8}
	]}`
	communityJSON = `{
		"MMLU":{"evalTableData":[{"model":"GPT-4","mmlu":86.4},{"model":"ChatGPT","mmlu":"70.0"}]},
		"DROP":{"evalTableData":[{"model":"GPT-4","drop":80.9}]},
		"MATH":{"evalTableData":[{"model":"GPT-4","math":42.5}]},
		"HumanEval":{"evalTableData":[{"model":"GPT-4","openaihumaneval":67.0},{"model":"Mystery-7B","openaihumaneval":12}]}
	}`
)

func openCompassServer(t *testing.T, community string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for path, body := range map[string]string{
		"/llm-rank/llm-data-v2.json":        rankingJSON,
		"/mm-rank/mmlb-data.json":           visionJSON,
		"/large-language-dataset-data.json": community,
	} {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestOpenCompass(t *testing.T) {
	srv := openCompassServer(t, communityJSON)

	report := normalizer.NewReport()
	tbl := run(t, NewOpenCompass(scraper(), srv.URL), report)

	assert.Equal(t, []string{"GPT-4o", "Qwen1.5 110B", "Claude 3 Opus", "GPT-4", "GPT-3.5"}, names(tbl))
	assert.Equal(t, []string{
		"OpenCompass avg", "OpenCompass CN", "OpenCompass EN",
		"MMMU", "MathVista",
		"MMLU", "DROP", "MATH", "HumanEval",
	}, tbl.Columns())

	assert.InDelta(t, 77.0, number(t, tbl, "GPT-4o", "OpenCompass avg"), 1e-9)
	assert.InDelta(t, 69.2, number(t, tbl, "GPT-4o", "MMMU"), 1e-9)
	assert.InDelta(t, 67.0, number(t, tbl, "GPT-4", "HumanEval"), 1e-9)

	cn, _ := tbl.Get(table.Text("Qwen1.5 110B"), "OpenCompass CN")
	assert.True(t, cn.IsMissing())

	assert.Equal(t, map[string][]string{"opencompass models": {"Mystery-7B"}}, report.ByMapping())
}

func TestOpenCompass_MissingBenchmark(t *testing.T) {
	srv := openCompassServer(t, `{"MMLU":{"evalTableData":[{"model":"GPT-4","mmlu":86.4}]}}`)

	_, err := NewOpenCompass(scraper(), srv.URL).Crawl(context.Background())
	assert.ErrorIs(t, err, extract.ErrRecordsNotFound)
}

func TestProcess_RejectsWrongShape(t *testing.T) {
	for _, c := range All(nil) {
		_, err := c.Process(&crawler.RawData{}, normalizer.NewReport())
		assert.ErrorIs(t, err, crawler.ErrUnexpectedRawData, c.Info().Topic)
	}
}
