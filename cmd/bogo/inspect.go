package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bogoinsight/internal/formatter"
	"bogoinsight/pkg/metadata"
)

var errCatalogDisabled = errors.New("catalog is disabled; enable it to record checksums")

func newSourcesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List every registered source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Category", "Topic", "Enabled", "Schedule", "URL"})

			for _, c := range reg.All() {
				info := c.Info()
				src, _ := a.cfg.Source(info.Topic)

				t.AppendRow(table.Row{info.Category(), info.Topic, a.cfg.Enabled(info.Topic), dash(src.Schedule), dash(src.URL)})
			}

			t.Render()

			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories that have snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.store()

			categories, err := store.ListCategories()
			if err != nil {
				return err
			}

			if len(categories) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No snapshots under %s\n", store.BaseDir())

				return nil
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Category", "Latest", "Bytes"})

			for _, c := range categories {
				snap, err := store.Latest(c)
				if err != nil {
					return err
				}

				t.AppendRow(table.Row{c, snap.Name, snap.Size})
			}

			t.Render()

			return nil
		},
	}
}

func newLatestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <category>",
		Short: "Print the path of a category's latest snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.store().Latest(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), snap.Path)

			return nil
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <category>",
		Short: "Preview a category's latest snapshot as a markdown table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, snap, err := a.store().LoadLatest(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "📄 %s (%d rows)\n\n%s\n", snap.Path, t.Len(), formatter.Preview(t, limit))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "rows to show; 0 shows all")

	return cmd
}

func newVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [category...]",
		Short: "Check snapshots against the checksums recorded in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}

			if cat == nil {
				return errCatalogDisabled
			}
			defer cat.Close()

			categories := args
			if len(categories) == 0 {
				if categories, err = a.store().ListCategories(); err != nil {
					return err
				}
			}

			var errs []error

			for _, c := range categories {
				v, err := cat.LatestVersion(cmd.Context(), c)
				if err == nil {
					_, err = metadata.Verify(v.Path, v.Checksum)
				}

				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "❌ %s: %v\n", c, err)
					errs = append(errs, fmt.Errorf("%s: %w", c, err))

					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s: %s\n", c, v.Path)
			}

			return errors.Join(errs...)
		},
	}
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)

	return t
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
