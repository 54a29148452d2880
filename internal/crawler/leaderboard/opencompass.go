package leaderboard

import (
	"context"
	"strings"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/reconcile"
	"bogoinsight/internal/table"
)

// OpenCompassURL is the asset root the three feeds live under.
const OpenCompassURL = "https://opencompass.oss-cn-shanghai.aliyuncs.com/assets/"

const (
	rankingFeed   = "llm-rank/llm-data-v2.json"
	visionFeed    = "mm-rank/mmlb-data.json"
	communityFeed = "large-language-dataset-data.json"
)

// communityBenchmark is one table of the community feed.
type communityBenchmark struct {
	key    string
	metric string
}

var communityBenchmarks = []communityBenchmark{
	{key: "MMLU", metric: "mmlu"},
	{key: "DROP", metric: "drop"},
	{key: "MATH", metric: "math"},
	{key: "HumanEval", metric: "openaihumaneval"},
}

var openCompassInfo = crawler.Info{
	Topic: "OpenCompass benchmark",
	Description: "OpenCompass hosts its own LLM ranking with a dedicated Chinese language score, " +
		"a multimodal ranking and a selection of community benchmarks.",
	Tags:              tags,
	SourceDescription: "OpenCompass: https://rank.opencompass.org.cn/",
}

var rankingBoard = board{
	columns: normalizer.MustMapping("opencompass ranking columns",
		pair{From: "model", To: NameColumn},
		pair{From: "Average", To: "OpenCompass avg"},
		pair{From: "Average_CN", To: "OpenCompass CN"},
		pair{From: "Average_EN", To: "OpenCompass EN"},
	),
	types: numbers("OpenCompass avg", "OpenCompass CN", "OpenCompass EN"),
}

var visionBoard = board{
	columns: normalizer.MustMapping("opencompass vision columns",
		pair{From: "Method", To: NameColumn},
		pair{From: "MMMU_VAL", To: "MMMU"},
		pair{From: "MathVista", To: "MathVista"},
	),
	types: numbers("MMMU", "MathVista"),
}

// openCompassModels resolves the names used across all three feeds.
var openCompassModels = normalizer.MustMapping("opencompass models",
	pair{From: "GPT-4o-20240513", To: "GPT-4o"},
	pair{From: "GPT-4-Turbo-20240409", To: "GPT-4 Turbo 2024-04-09"},
	pair{From: "GPT-4-Turbo-1106", To: "GPT-4 Turbo"},
	pair{From: "Claude3-Opus", To: "Claude 3 Opus"},
	pair{From: "Llama3-70B-Instruct", To: "Llama 3 70B"},
	pair{From: "Qwen1.5-110B-Chat", To: "Qwen1.5 110B"},
	pair{From: "Qwen-Max-0403", To: "Qwen2 Max 0403"},
	pair{From: "ERNIE-4.0-8K-0329", To: "Ernie 4.0"},
	pair{From: "Qwen1.5-72B-Chat", To: "Qwen1.5 72B"},
	pair{From: "Moonshot-v1-8K", To: "Moonshot V1 8K"},
	pair{From: "Mistral-Large", To: "Mistral Large"},
	pair{From: "Qwen-72B-Chat", To: "Qwen 72B"},
	pair{From: "Qwen1.5-14B-Chat", To: "Qwen1.5 14B"},
	pair{From: "Qwen1.5-32B-Chat", To: "Qwen1.5 32B"},
	pair{From: "GPT-3.5-Turbo", To: "GPT-3.5 Turbo 16K 0613"},
	pair{From: "Qwen-14B-Chat", To: "Qwen 14B"},
	pair{From: "Llama3-8B-Instruct", To: "Llama 3 8B"},
	pair{From: "Qwen1.5-7B-Chat", To: "Qwen1.5 7B"},
	pair{From: "Mixtral-8x7B-Instruct-v0.1", To: "Mixtral 8x7B"},
	pair{From: "Qwen-7B-Chat", To: "Qwen 7B"},
	pair{From: "LLaMA-2-70B-Chat", To: "Llama 2 70B"},
	pair{From: "Mistral-7B-Instruct-v0.2", To: "Mistral 7B"},
	pair{From: "LLaMA-2-13B-Chat", To: "Llama 2 13B"},
	pair{From: "LLaMA-2-7B-Chat", To: "Llama 2 7B"},
	pair{From: "GLM-4", To: "GLM-4"},
	pair{From: "Qwen-Max-0428", To: "Qwen2.5 Max 0428"},
	pair{From: "Yi-Large", To: "Yi Large"},
	// vision
	pair{From: "GPT-4o, 20240513", To: "GPT-4o"},
	pair{From: "GPT-4v, 20240409", To: "GPT-4 Turbo 2024-04-09"},
	pair{From: "GPT-4v-20240409", To: "GPT-4 Turbo 2024-04-09"},
	pair{From: "Qwen-VL-Max", To: "Qwen VL Max"},
	pair{From: "GPT-4v, 20231106", To: "GPT-4 Vision Preview"},
	pair{From: "Qwen-VL-Plus", To: "Qwen VL Plus"},
	pair{From: "Claude-3-Sonnet", To: "Claude 3 Sonnet"},
	pair{From: "Claude-3V Opus", To: "Claude 3 Opus"},
	pair{From: "Claude-3-Haiku", To: "Claude 3 Haiku"},
	pair{From: "PaliGemma-3B-mix-448", To: "PaliGemma"},
	pair{From: "Qwen-VL-Chat", To: "Qwen VL"},
	pair{From: "GeminiProVision", To: "Gemini 1.0 Pro"},
	pair{From: "GLM-4v", To: "GLM-4V"},
	pair{From: "Claude3.5-Sonnet", To: "Claude 3.5 Sonnet"},
	pair{From: "Gemini-1.5-Pro", To: "Gemini 1.5 Pro"},
	pair{From: "Gemini-1.0-Pro", To: "Gemini 1.0 Pro"},
	pair{From: "GPT-4o-mini-20240718", To: "GPT-4o-mini"},
	pair{From: "GPT-4v-20231106", To: "GPT-4 Vision Preview"},
	pair{From: "Phi-3-Vision", To: "Phi-3 Vision"},
	pair{From: "Qwen-VL", To: "Qwen VL"},
	// community
	pair{From: "GPT-4", To: "GPT-4"},
	pair{From: "Qwen-72B", To: "Qwen 72B"},
	pair{From: "ChatGPT", To: "GPT-3.5"},
	pair{From: "Qwen-14B", To: "Qwen 14B"},
	pair{From: "Claude-1", To: "Claude"},
	pair{From: "LLaMA-65B", To: "LLaMA"},
	pair{From: "Qwen-7B", To: "Qwen 7B"},
	pair{From: "LLaMA-2-13B", To: "Llama 2 13B"},
	pair{From: "LLaMA-2-7B", To: "Llama 2 7B"},
	pair{From: "LLaMA-2-70B", To: "Llama 2 70B"},
	pair{From: "Qwen-1.8B", To: "Qwen 1.8B"},
)

// OpenCompass merges the ranking, vision and community feeds.
type OpenCompass struct {
	fetcher crawler.Fetcher
	base    string
}

// NewOpenCompass creates a new OpenCompass instance. An empty base uses OpenCompassURL.
func NewOpenCompass(f crawler.Fetcher, base string) *OpenCompass {
	if base == "" {
		base = OpenCompassURL
	}

	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &OpenCompass{fetcher: f, base: base}
}

// Info returns the static description of the leaderboard.
func (c *OpenCompass) Info() crawler.Info { return openCompassInfo }

// Crawl fetches the three feeds. Parts holds the ranking, the vision
// ranking and one part per community benchmark, in that order.
func (c *OpenCompass) Crawl(ctx context.Context) (*crawler.RawData, error) {
	ranking, err := c.records(ctx, rankingFeed, "OverallTable")
	if err != nil {
		return nil, err
	}

	vision, err := c.records(ctx, visionFeed, "Main")
	if err != nil {
		return nil, err
	}

	body, err := c.fetcher.Fetch(ctx, crawler.Request{URL: c.base + communityFeed})
	if err != nil {
		return nil, err
	}

	raw := &crawler.RawData{Parts: []*crawler.RawData{{Records: ranking}, {Records: vision}}}

	for _, b := range communityBenchmarks {
		recs, err := extract.Records(body, b.key, "evalTableData")
		if err != nil {
			return nil, err
		}

		raw.Parts = append(raw.Parts, &crawler.RawData{Records: recs})
	}

	return raw, nil
}

func (c *OpenCompass) records(ctx context.Context, feed string, path ...string) ([]extract.Record, error) {
	body, err := c.fetcher.Fetch(ctx, crawler.Request{URL: c.base + feed})
	if err != nil {
		return nil, err
	}

	return extract.Records(body, path...)
}

// Process builds one table per feed and merges them, earlier feeds first.
func (c *OpenCompass) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	if raw == nil || len(raw.Parts) != 2+len(communityBenchmarks) {
		return nil, crawler.ErrUnexpectedRawData
	}

	var tables []*table.Table

	feeds := []struct {
		source string
		board  board
	}{
		{source: "OverallTable", board: rankingBoard},
		{source: "Main", board: visionBoard},
	}

	for i, feed := range feeds {
		part, _ := raw.Part(i)

		recs, err := part.RecordSet()
		if err != nil {
			return nil, err
		}

		g := extract.RecordGrid(feed.source, recs, feed.board.columns.Keys()...)

		t, err := feed.board.table(g, openCompassModels, report)
		if err != nil {
			return nil, err
		}

		tables = append(tables, t)
	}

	for i, b := range communityBenchmarks {
		part, _ := raw.Part(2 + i)

		recs, err := part.RecordSet()
		if err != nil {
			return nil, err
		}

		bb := board{
			columns: normalizer.MustMapping(b.key+" columns",
				pair{From: "model", To: NameColumn},
				pair{From: b.metric, To: b.key},
			),
			types: numbers(b.key),
		}

		t, err := bb.table(extract.RecordGrid(b.key, recs, "model", b.metric), openCompassModels, report)
		if err != nil {
			return nil, err
		}

		tables = append(tables, t)
	}

	return reconcile.CombineAll(tables[0], tables[1:]...)
}
