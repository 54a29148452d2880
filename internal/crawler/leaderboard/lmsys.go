package leaderboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// LMSYSURL is the Gradio app serving the arena leaderboard.
const LMSYSURL = "https://lmsys-chatbot-arena-leaderboard.hf.space/"

const (
	lmsysEndpoint = "call/update_leaderboard_and_plots"
	lmsysCategory = "Overall"
)

// ErrGradioEvent is an event stream that never completed.
var ErrGradioEvent = errors.New("gradio call did not complete")

var lmsysInfo = crawler.Info{
	Topic:       "LMSYS Arena Elo",
	Description: "Elo ratings of chatbots from pairwise human votes on the LMSYS Chatbot Arena.",
	Tags:        tags,
	SourceDescription: "Official blog: https://lmsys.org/blog/2023-05-03-arena/ " +
		"Online leaderboard: https://lmsys-chatbot-arena-leaderboard.hf.space/ " +
		"Paper: https://arxiv.org/abs/2403.04132",
}

var lmsysBoard = board{
	columns: normalizer.MustMapping("lmsys columns",
		pair{From: "Model", To: NameColumn},
		pair{From: "Arena Elo", To: "LMSYS Arena Elo"},
	),
	types: numbers("LMSYS Arena Elo"),
}

var lmsysModels = normalizer.MustMapping("lmsys models",
	pair{From: "GPT-4o-2024-05-13", To: "GPT-4o"},
	pair{From: "GPT-4-Turbo-2024-04-09", To: "GPT-4 Turbo 2024-04-09"},
	pair{From: "Gemini 1.5 Pro API-0409-Preview", To: "Gemini 1.5 Pro"},
	pair{From: "GPT-4-1106-preview", To: "GPT-4 Turbo"},
	pair{From: "Claude 3 Opus", To: "Claude 3 Opus"},
	pair{From: "GPT-4-0125-preview", To: "GPT-4 Turbo 0125"},
	pair{From: "Bard (Gemini Pro)", To: "Gemini 1.0 Pro"},
	pair{From: "Llama-3-70b-Instruct", To: "Llama 3 70B"},
	pair{From: "Claude 3 Sonnet", To: "Claude 3 Sonnet"},
	pair{From: "GPT-4-0314", To: "GPT-4"},
	pair{From: "Qwen-Max-0428", To: "Qwen2.5 Max 0428"},
	pair{From: "Claude 3 Haiku", To: "Claude 3 Haiku"},
	pair{From: "Qwen1.5-110B-Chat", To: "Qwen1.5 110B"},
	pair{From: "GPT-4-0613", To: "GPT-4 0613"},
	pair{From: "Llama-3-8b-Instruct", To: "Llama 3 8B"},
	pair{From: "Mistral-Large-2402", To: "Mistral Large"},
	pair{From: "Qwen1.5-72B-Chat", To: "Qwen1.5 72B"},
	pair{From: "Claude-2.0", To: "Claude 2"},
	pair{From: "GPT-3.5-Turbo-0613", To: "GPT-3.5 Turbo 16K 0613"},
	pair{From: "Qwen1.5-14B-Chat", To: "Qwen1.5 14B"},
	pair{From: "Claude-2.1", To: "Claude 2.1"},
	pair{From: "GPT-3.5-Turbo-0314", To: "GPT-3.5 Turbo 0301"},
	pair{From: "Mixtral-8x7b-Instruct-v0.1", To: "Mixtral 8x7B"},
	pair{From: "GPT-3.5-Turbo-0125", To: "GPT-3.5 Turbo 16K 0125"},
	pair{From: "Llama-2-70b-chat", To: "Llama 2 70B"},
	pair{From: "Gemma-1.1-7B-it", To: "Gemma"},
	pair{From: "Qwen1.5-7B-Chat", To: "Qwen1.5 7B"},
	pair{From: "Claude-1", To: "Claude"},
	pair{From: "Mistral Medium", To: "Mistral Medium"},
	pair{From: "Mistral-7B-Instruct-v0.2", To: "Mistral 7B"},
	pair{From: "GPT-3.5-Turbo-1106", To: "GPT-3.5 Turbo 16K 1106"},
	pair{From: "Llama-2-13b-chat", To: "Llama 2 13B"},
	pair{From: "Qwen-14B-Chat", To: "Qwen 14B"},
	pair{From: "Llama-2-7b-chat", To: "Llama 2 7B"},
	pair{From: "LLaMA-13B", To: "LLaMA"},
	pair{From: "Qwen1.5-32B-Chat", To: "Qwen1.5 32B"},
	pair{From: "Yi-Large-preview", To: "Yi Large"},
	pair{From: "GLM-4-0116", To: "GLM-4"},
)

// LMSYS reads the arena leaderboard through the app's Gradio HTTP API.
type LMSYS struct {
	fetcher crawler.Fetcher
	base    string
}

// NewLMSYS creates a new LMSYS instance. An empty base uses LMSYSURL.
func NewLMSYS(f crawler.Fetcher, base string) *LMSYS {
	if base == "" {
		base = LMSYSURL
	}

	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &LMSYS{fetcher: f, base: base}
}

// Info returns the static description of the leaderboard.
func (c *LMSYS) Info() crawler.Info { return lmsysInfo }

// Crawl queues the leaderboard call, then reads its result from the event stream.
func (c *LMSYS) Crawl(ctx context.Context) (*crawler.RawData, error) {
	body, err := c.fetcher.Fetch(ctx, crawler.Request{
		Method: http.MethodPost,
		URL:    c.base + lmsysEndpoint,
		JSON:   map[string]any{"data": []string{lmsysCategory}},
	})
	if err != nil {
		return nil, err
	}

	var call struct {
		EventID string `json:"event_id"`
	}

	if err := json.Unmarshal(body, &call); err != nil || call.EventID == "" {
		return nil, fmt.Errorf("%w: no event id in %q", extract.ErrStructuralExtraction, truncate(body))
	}

	stream, err := c.fetcher.Fetch(ctx, crawler.Request{URL: c.base + lmsysEndpoint + "/" + call.EventID})
	if err != nil {
		return nil, err
	}

	data, err := completed(stream)
	if err != nil {
		return nil, err
	}

	g, err := gradioFrame(data)
	if err != nil {
		return nil, err
	}

	return &crawler.RawData{Grids: []*extract.Grid{g}}, nil
}

// Process keeps the model and rating columns of known models.
func (c *LMSYS) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(1); err != nil {
		return nil, err
	}

	g, _ := raw.Grid(0)

	return lmsysBoard.table(g, lmsysModels, report)
}

// completed returns the data line of the "complete" event of a Gradio stream.
func completed(stream []byte) ([]byte, error) {
	sc := bufio.NewScanner(bytes.NewReader(stream))
	sc.Buffer(make([]byte, 0, 64<<10), len(stream)+1)

	event := ""

	for sc.Scan() {
		line := sc.Text()

		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:") && event == "complete":
			return []byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), nil
		case strings.HasPrefix(line, "data:") && event == "error":
			return nil, fmt.Errorf("%w: %s", ErrGradioEvent, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGradioEvent, err)
	}

	return nil, ErrGradioEvent
}

// gradioFrame reads the dataframe output {"value": {"headers", "data"}} of
// the first component.
func gradioFrame(data []byte) (*extract.Grid, error) {
	var outputs []struct {
		Value struct {
			Headers []string `json:"headers"`
			Data    [][]any  `json:"data"`
		} `json:"value"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&outputs); err != nil {
		return nil, fmt.Errorf("%w: invalid Gradio output: %w", extract.ErrStructuralExtraction, err)
	}

	if len(outputs) == 0 || len(outputs[0].Value.Headers) == 0 {
		return nil, fmt.Errorf("%w: no dataframe in Gradio output", extract.ErrRecordsNotFound)
	}

	frame := outputs[0].Value
	if len(frame.Data) == 0 {
		return nil, extract.ErrEmptyTable
	}

	g := &extract.Grid{Source: lmsysEndpoint, Header: frame.Headers}

	for _, row := range frame.Data {
		cells := make([]string, len(frame.Headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = extract.Stringify(row[i])
			}
		}

		g.Rows = append(g.Rows, cells)
	}

	return g, nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit])
	}

	return string(b)
}
