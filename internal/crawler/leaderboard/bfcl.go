package leaderboard

import (
	"context"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// BFCLURL is the CSV export of the Berkeley Function Calling Leaderboard.
const BFCLURL = "https://gorilla.cs.berkeley.edu/data.csv"

var bfclInfo = crawler.Info{
	Topic: "BFCL benchmark",
	Description: "The Berkeley Function Calling Leaderboard evaluates how accurately LLMs call functions. " +
		"Cost is an estimate in USD per 1000 calls and latency is in seconds; open models are served " +
		"with vLLM on 8 V100 GPUs.",
	Tags:              tags,
	SourceDescription: "Official website: https://gorilla.cs.berkeley.edu/leaderboard.html",
}

var bfclBoard = board{
	columns: normalizer.MustMapping("bfcl columns",
		pair{From: "Model", To: NameColumn},
		pair{From: "Overall Acc", To: "BFCL"},
		pair{From: "Cost ($ Per 1k Function Calls)", To: "function call cost ($/K calls)"},
		pair{From: "Latency Mean (s)", To: "function call avg latency (s)"},
	),
	types: numbers("BFCL", "function call cost ($/K calls)", "function call avg latency (s)"),
}

var bfclModels = normalizer.MustMapping("bfcl models",
	pair{From: "GPT-4-0125-Preview (Prompt)", To: "GPT-4 Turbo 0125"},
	pair{From: "Claude-3-Opus-20240229 (Prompt)", To: "Claude 3 Opus"},
	pair{From: "Gemini-1.5-Pro-Preview-0514 (FC)", To: "Gemini 1.5 Pro 2024-05"},
	pair{From: "GPT-4-1106-Preview (FC)", To: "GPT-4 Turbo"},
	pair{From: "GPT-4-turbo-2024-04-09 (Prompt)", To: "GPT-4 Turbo 2024-04-09"},
	pair{From: "Gemini-1.5-Pro-Preview-0409 (FC)", To: "Gemini 1.5 Pro"},
	pair{From: "Meta-Llama-3-70B-Instruct (Prompt)", To: "Llama 3 70B"},
	pair{From: "GPT-4o-2024-05-13 (FC)", To: "GPT-4o"},
	pair{From: "Claude-3-Sonnet-20240229 (Prompt)", To: "Claude 3 Sonnet"},
	pair{From: "Mistral-Medium-2312 (Prompt)", To: "Mistral Medium"},
	pair{From: "Gemini-1.5-Flash-Preview-0514 (FC)", To: "Gemini 1.5 Flash"},
	pair{From: "Claude-3-Haiku-20240307 (Prompt)", To: "Claude 3 Haiku"},
	pair{From: "Claude-2.1 (Prompt)", To: "Claude 2.1"},
	pair{From: "Mistral-large-2402 (FC Auto)", To: "Mistral Large"},
	pair{From: "Gemini-1.0-Pro-001 (FC)", To: "Gemini 1.0 Pro"},
	pair{From: "GPT-3.5-Turbo-0125 (FC)", To: "GPT-3.5 Turbo 16K 0125"},
	pair{From: "Meta-Llama-3-8B-Instruct (Prompt)", To: "Llama 3 8B"},
	pair{From: "GPT-4-0613 (FC)", To: "GPT-4 0613"},
	pair{From: "Gemma-7b-it (Prompt)", To: "Gemma"},
	pair{From: "Claude-3.5-Sonnet-20240620 (Prompt)", To: "Claude 3.5 Sonnet"},
)

// BFCL reads the function calling leaderboard CSV.
type BFCL struct {
	fetcher crawler.Fetcher
	url     string
}

// NewBFCL creates a new BFCL instance. An empty url uses BFCLURL.
func NewBFCL(f crawler.Fetcher, url string) *BFCL {
	if url == "" {
		url = BFCLURL
	}

	return &BFCL{fetcher: f, url: url}
}

// Info returns the static description of the leaderboard.
func (c *BFCL) Info() crawler.Info { return bfclInfo }

// Crawl downloads the CSV.
func (c *BFCL) Crawl(ctx context.Context) (*crawler.RawData, error) {
	body, err := c.fetcher.Fetch(ctx, crawler.Request{URL: c.url})
	if err != nil {
		return nil, err
	}

	g, err := extract.CSV(body)
	if err != nil {
		return nil, err
	}

	g.Source = "bfcl"

	return &crawler.RawData{Grids: []*extract.Grid{g}}, nil
}

// Process keeps accuracy, cost and latency of known models.
func (c *BFCL) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(1); err != nil {
		return nil, err
	}

	g, _ := raw.Grid(0)

	return bfclBoard.table(g, bfclModels, report)
}
