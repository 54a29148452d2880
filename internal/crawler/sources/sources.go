// Package sources assembles every crawler the project knows about.
package sources

import (
	"os"

	"bogoinsight/internal/config"
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/crawler/censtatd"
	"bogoinsight/internal/crawler/leaderboard"
	"bogoinsight/internal/crawler/rvd"
	"bogoinsight/internal/crawler/wikipedia"
	"bogoinsight/internal/overrides"
)

// NewFetcher builds the scraper every source shares.
func NewFetcher(cfg *config.Config) *crawler.Scraper {
	return crawler.NewScraper(crawler.ScraperOptions{
		Timeout:      cfg.Crawler.HTTP.Timeout(),
		UserAgent:    cfg.Crawler.HTTP.UserAgent,
		MaxBodyBytes: cfg.Crawler.HTTP.MaxBodyBytes(),
	})
}

// configured builds a crawler with its default URL, then rebuilds it when
// the configuration names another URL for its topic.
func configured[C crawler.Crawler](f crawler.Fetcher, cfg *config.Config, build func(crawler.Fetcher, string) C) C {
	c := build(f, "")
	if url := cfg.SourceURL(c.Info().Topic); url != "" {
		c = build(f, url)
	}

	return c
}

// All returns every source in registration order.
func All(f crawler.Fetcher, cfg *config.Config) []crawler.Crawler {
	boards := []crawler.Crawler{
		configured(f, cfg, leaderboard.NewOpenCompass),
		configured(f, cfg, leaderboard.NewLMSYS),
		configured(f, cfg, leaderboard.NewBFCL),
	}

	llm := configured(f, cfg, func(f crawler.Fetcher, url string) *wikipedia.LLMSpecs {
		return wikipedia.NewLLMSpecs(f, url, overridesPath(cfg), boards...)
	})

	out := []crawler.Crawler{
		configured(f, cfg, censtatd.HIBOR),
		configured(f, cfg, censtatd.InterestRate),
		configured(f, cfg, censtatd.ExchangeRate),
		configured(f, cfg, censtatd.GDP),
		configured(f, cfg, censtatd.ForeignInvestment),
		configured(f, cfg, censtatd.HouseholdCount),
		configured(f, cfg, censtatd.PopulationGrowth),
		configured(f, cfg, rvd.RentalIndex),
		configured(f, cfg, rvd.TakeUp),
		configured(f, cfg, rvd.Vacancy),
		configured(f, cfg, wikipedia.NewGPUSpecs),
		llm,
		configured(f, cfg, wikipedia.NewFootballKnockout),
	}

	return append(out, boards...)
}

// overridesPath falls back to the bundled workbook when none is configured.
func overridesPath(cfg *config.Config) string {
	if cfg.Crawler.Overrides.LLMPath != "" {
		return cfg.Crawler.Overrides.LLMPath
	}

	if _, err := os.Stat(overrides.DefaultPath); err != nil {
		return ""
	}

	return overrides.DefaultPath
}

// NewRegistry registers every source. A configured topic that matches no
// source is an error, so typos do not pass silently.
func NewRegistry(f crawler.Fetcher, cfg *config.Config) (*crawler.Registry, error) {
	reg := crawler.NewRegistry()
	if err := reg.Register(All(f, cfg)...); err != nil {
		return nil, err
	}

	for _, src := range cfg.Crawler.Sources {
		if _, err := reg.Get(src.Topic); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Enabled drops crawlers the configuration switched off.
func Enabled(cfg *config.Config, crawlers []crawler.Crawler) []crawler.Crawler {
	out := make([]crawler.Crawler, 0, len(crawlers))

	for _, c := range crawlers {
		if cfg.Enabled(c.Info().Topic) {
			out = append(out, c)
		}
	}

	return out
}
