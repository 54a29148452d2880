// Package wikipedia crawls tables out of Wikipedia articles.
package wikipedia

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

// BaseURL prefixes every article.
const BaseURL = "https://en.wikipedia.org/wiki/"

type pair = normalizer.Pair

// page fetches an article with its footnote markers removed.
func page(ctx context.Context, f crawler.Fetcher, url string) (*goquery.Document, error) {
	body, err := f.Fetch(ctx, crawler.Request{URL: url})
	if err != nil {
		return nil, err
	}

	doc, err := extract.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	extract.StripFootnotes(doc)

	return doc, nil
}

// allow builds a set from names.
func allow(names ...string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}

	return out
}

// newestFirst sorts rows by the given columns in descending order, missing last.
func newestFirst(t *table.Table, columns ...string) {
	t.SortRows(func(a, b table.Row) bool {
		for _, c := range columns {
			x, y := a.Get(c), b.Get(c)
			if x.Equal(y) {
				continue
			}

			if x.IsMissing() || y.IsMissing() {
				return y.IsMissing()
			}

			return y.Less(x)
		}

		return false
	})
}

// Options selects where the Wikipedia sources read from. Empty fields keep defaults.
type Options struct {
	GPUURL          string
	LLMURL          string
	FootballBaseURL string
	OverridesPath   string
	Leaderboards    []crawler.Crawler
}

// All returns every Wikipedia source.
func All(f crawler.Fetcher, opts Options) []crawler.Crawler {
	return []crawler.Crawler{
		NewGPUSpecs(f, opts.GPUURL),
		NewLLMSpecs(f, opts.LLMURL, opts.OverridesPath, opts.Leaderboards...),
		NewFootballKnockout(f, opts.FootballBaseURL),
	}
}
