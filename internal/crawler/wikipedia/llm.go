package wikipedia

import (
	"context"
	"fmt"
	"regexp"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/overrides"
	"bogoinsight/internal/reconcile"
	"bogoinsight/internal/table"
)

// LLMURL is the article listing large language models.
const LLMURL = BaseURL + "Large_language_model"

const (
	llmSection   = "List"
	nameColumn   = "name"
	sourceAccess = "source access"
)

var llmInfo = crawler.Info{
	Topic:       "LLM Specs",
	Description: "Specs on leading large language models.",
	Tags:        []string{"LLM", "machine learning"},
	SourceDescription: "Most information from Wikipedia: https://en.wikipedia.org/wiki/Large_language_model " +
		"With most price data from OpenRouter: https://openrouter.ai/ " +
		"Most benchmark data from OpenCompass: https://rank.opencompass.org.cn/ " +
		"except for LMSYS Arena Elo score from LMSYS Arena: https://lmsys-chatbot-arena-leaderboard.hf.space/ " +
		"and BFCL score from BFCL: https://gorilla.cs.berkeley.edu/leaderboard.html " +
		"Plus miscellaneous information manually gathered from various sources.",
}

var llmColumns = normalizer.MustMapping("llm columns",
	pair{From: "Name", To: nameColumn},
	pair{From: "Release date", To: "period"},
	pair{From: "Developer", To: "developer"},
	pair{From: "Number of parameters (billion)", To: "parameters (B)"},
	pair{From: "Corpus size", To: "corpus size (B tokens)"},
	pair{From: "Training cost (petaFLOP-day)", To: "training cost (PFLOPS-day)"},
	pair{From: "License", To: "license"},
)

var llmTypes = map[string]normalizer.Coercion{
	"period":                     normalizer.AsDate,
	"parameters (B)":             normalizer.AsNumber,
	"corpus size (B tokens)":     normalizer.AsQuantity,
	"training cost (PFLOPS-day)": normalizer.AsNumber,
}

var selectedModels = allow(
	"GPT-1", "GPT-2", "GPT-3", "GPT-4",
	"BERT", "T5", "Chinchilla",
	"PaLM (Pathways Language Model)", "PaLM 2 (Pathways Language Model 2)",
	"Ernie 3.0 Titan",
	"Claude", "Claude 2", "Claude 2.1", "Claude 3",
	"LLaMA (Large Language Model Meta AI)", "Llama 2",
	"PanGu-Σ",
	"Mistral 7B", "Mixtral 8x7B",
	"Grok-1", "Gemma",
)

// modelVariants lists the rows that one article entry stands for.
var modelVariants = map[string][]string{
	"Claude 3": {"Claude 3 Opus", "Claude 3 Sonnet", "Claude 3 Haiku"},
	"Llama 2":  {"Llama 2 7B", "Llama 2 13B", "Llama 2 70B"},
}

var licenseAccess = normalizer.MustMapping("license",
	pair{From: "Proprietary", To: "close source"},
	pair{From: "Apache 2.0", To: "open source"},
	pair{From: "Llama 2 license", To: "open source"},
	pair{From: "Llama 3 license", To: "open source"},
	pair{From: "tongyi-qianwen", To: "open source"},
	pair{From: "MIT", To: "open source"},
	pair{From: "Non-commercial research", To: "open source"},
	pair{From: "beta", To: "close source"},
)

var developers = map[string]string{
	"DeepMind":        "Google",
	"Google DeepMind": "Google",
	"Meta AI":         "Meta",
}

var llmLeadColumns = []string{
	"period", "developer", "parameters (B)",
	"input context window (K tkns)", "max output tokens (K tkns)",
	"input token price ($/M tkns)", "output token price ($/M tkns)", "input image price ($/K imgs)",
	sourceAccess,
}

var expansion = regexp.MustCompile(` \(.*\)`)

// LLMSpecs joins the article's model list with curated overrides and
// benchmark scores from the leaderboards.
type LLMSpecs struct {
	fetcher   crawler.Fetcher
	url       string
	overrides string
	boards    []crawler.Crawler
	processor *normalizer.Processor
}

// NewLLMSpecs creates a new LLMSpecs instance. An empty url uses LLMURL and
// an empty overridesPath skips the curated workbook. Leaderboards are merged
// in the order given, earlier ones winning.
func NewLLMSpecs(f crawler.Fetcher, url, overridesPath string, boards ...crawler.Crawler) *LLMSpecs {
	if url == "" {
		url = LLMURL
	}

	return &LLMSpecs{
		fetcher:   f,
		url:       url,
		overrides: overridesPath,
		boards:    boards,
		processor: normalizer.NewProcessor(),
	}
}

// Info returns the static description of the dataset.
func (c *LLMSpecs) Info() crawler.Info { return llmInfo }

// Crawl reads the article's list table, the override workbook when
// configured, and every leaderboard.
func (c *LLMSpecs) Crawl(ctx context.Context) (*crawler.RawData, error) {
	doc, err := page(ctx, c.fetcher, c.url)
	if err != nil {
		return nil, err
	}

	g, err := extract.SectionTable(doc, llmSection)
	if err != nil {
		return nil, err
	}

	raw := &crawler.RawData{Grids: []*extract.Grid{g}}

	if c.overrides != "" {
		t, err := overrides.Load(c.overrides)
		if err != nil {
			return nil, err
		}

		raw.Tables = append(raw.Tables, t)
	}

	for _, b := range c.boards {
		part, err := b.Crawl(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Info().Topic, err)
		}

		raw.Parts = append(raw.Parts, part)
	}

	return raw, nil
}

// Process builds the model table and layers the other sources onto it.
func (c *LLMSpecs) Process(raw *crawler.RawData, report *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(1); err != nil {
		return nil, err
	}

	if len(raw.Parts) != len(c.boards) {
		return nil, fmt.Errorf("%w: %d leaderboards, want %d", crawler.ErrUnexpectedRawData, len(raw.Parts), len(c.boards))
	}

	g, _ := raw.Grid(0)

	t, err := c.models(g)
	if err != nil {
		return nil, err
	}

	if len(raw.Tables) > 0 {
		curated, _ := raw.Table(0)

		if t, err = reconcile.Combine(curated, t); err != nil {
			return nil, err
		}
	}

	if err := classify(t, report); err != nil {
		return nil, err
	}

	for i, b := range c.boards {
		part, _ := raw.Part(i)

		scores, err := b.Process(part, report)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Info().Topic, err)
		}

		if t, err = reconcile.Combine(t, scores); err != nil {
			return nil, err
		}
	}

	t.Reorder(llmLeadColumns...)
	newestFirst(t, "period", "parameters (B)")

	return t, nil
}

// models keeps the selected rows, shortens names and expands model families.
func (c *LLMSpecs) models(g *extract.Grid) (*table.Table, error) {
	if err := g.Require(llmColumns.Keys()...); err != nil {
		return nil, err
	}

	batch, err := c.processor.Process(g, normalizer.GridSpec{
		Keep:    func(row map[string]string) bool { return selectedModels[row["Name"]] },
		Columns: llmColumns,
		Types:   llmTypes,
	})
	if err != nil {
		return nil, err
	}

	var records, variants []table.Record

	for _, rec := range batch.Records {
		name, _ := rec[nameColumn].Str()
		name = expansion.ReplaceAllString(name, "")
		rec[nameColumn] = table.Text(name)

		names, ok := modelVariants[name]
		if !ok {
			records = append(records, rec)

			continue
		}

		for _, n := range names {
			v := make(table.Record, len(rec))
			for k, val := range rec {
				v[k] = val
			}

			v[nameColumn] = table.Text(n)
			variants = append(variants, v)
		}
	}

	batch.Records = append(records, variants...)

	return batch.Table(nameColumn)
}

// classify normalizes license and developer spellings and derives source access.
func classify(t *table.Table, report *normalizer.Report) error {
	licenses, err := t.Column("license")
	if err != nil {
		return err
	}

	devs, err := t.Column("developer")
	if err != nil {
		return err
	}

	access := make([]table.Value, len(licenses))

	for i, l := range licenses {
		s, ok := l.Str()
		if !ok {
			continue
		}

		if s == "proprietary" {
			s = "Proprietary"
			licenses[i] = table.Text(s)
		}

		if a, ok := licenseAccess.Map(s, report); ok {
			access[i] = table.Text(a)
		}
	}

	for i, d := range devs {
		if s, ok := d.Str(); ok {
			if canonical, ok := developers[s]; ok {
				devs[i] = table.Text(canonical)
			}
		}
	}

	for _, col := range []struct {
		name   string
		values []table.Value
	}{
		{"license", licenses},
		{"developer", devs},
		{sourceAccess, access},
	} {
		if err := t.SetColumn(col.name, col.values); err != nil {
			return err
		}
	}

	return nil
}
