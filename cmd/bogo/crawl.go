package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/crawler/sources"
	"bogoinsight/internal/formatter"
)

var errNoTopics = errors.New("name at least one topic or pass --all")

func newCrawlCommand(a *app) *cobra.Command {
	var (
		all     bool
		preview int
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "crawl [topic or category...]",
		Short: "Crawl sources and write snapshots",
		Long: "Crawl the named sources, or every enabled source with --all, one at a time.\n" +
			"A failing source never stops the others; the command fails if any did.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errNoTopics
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}

			var selected []crawler.Crawler
			if all {
				selected = sources.Enabled(a.cfg, reg.All())
			} else if selected, err = reg.Select(args...); err != nil {
				return err
			}

			runner, release, err := a.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			runner.DryRun = dryRun

			results, runErr := runner.RunAll(cmd.Context(), selected)
			printResults(cmd, results, preview)

			return runErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "crawl every enabled source")
	cmd.Flags().IntVar(&preview, "preview", 0, "print the first N rows of each processed table")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "crawl and process without writing snapshots")

	return cmd
}

func printResults(cmd *cobra.Command, results []*crawler.Result, preview int) {
	out := cmd.OutOrStdout()

	for _, res := range results {
		if res == nil {
			continue
		}

		if res.Err != nil {
			fmt.Fprintf(out, "❌ %s: %v\n", res.Topic, res.Err)

			continue
		}

		status := "✅"
		if res.Unchanged {
			status = "➖"
		}

		target := res.Path
		if target == "" {
			target = "(dry run)"
		}

		fmt.Fprintf(out, "%s %s: %d rows x %d columns -> %s\n", status, res.Topic, res.Rows, res.Columns, target)

		for _, u := range res.Unmapped {
			fmt.Fprintf(out, "   ⚠️  unmapped %s: %q (x%d)\n", u.Mapping, u.Code, u.Count)
		}

		if preview > 0 && res.Table != nil {
			fmt.Fprintf(out, "\n%s\n\n", formatter.Preview(res.Table, preview))
		}
	}

	fmt.Fprintf(out, "\n📊 %s\n", crawler.Summarize(results))
}
