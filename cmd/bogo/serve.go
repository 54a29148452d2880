package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bogoinsight/internal/cache"
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/scheduler"
	"bogoinsight/internal/server"
)

var errNoSchedules = errors.New("no enabled source has a schedule")

func newServeCommand(a *app) *cobra.Command {
	var (
		addr     string
		schedule bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			cat, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}

			var topics server.Catalog
			if cat != nil {
				defer cat.Close()
				topics = cat
			}

			store := a.store()
			c := cache.New(store, a.cfg.Server.CacheTTL())

			if schedule {
				s, release, err := a.scheduler(cmd)
				if err != nil {
					return err
				}
				defer release()

				// Fresh snapshots must not be hidden behind the cache.
				s.OnSuccess = func(res *crawler.Result) { c.Invalidate(res.Category) }

				s.Start(ctx)
				defer s.Stop()
			}

			return server.New(store, c, topics, a.log).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "also run scheduled crawls in this process")

	return cmd
}

func newScheduleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Re-crawl sources on their configured cron schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, release, err := a.scheduler(cmd)
			if err != nil {
				return err
			}
			defer release()

			entries := s.Entries()
			if len(entries) == 0 {
				return errNoSchedules
			}

			s.Start(cmd.Context())

			for _, e := range s.Entries() {
				fmt.Fprintf(cmd.OutOrStdout(), "⏰ %s (%s) next at %s\n", e.Topic, e.Schedule, e.Next.Format("2006-01-02 15:04:05"))
			}

			<-cmd.Context().Done()
			s.Stop()

			return nil
		},
	}
}

// scheduler registers every enabled source that has a schedule.
func (a *app) scheduler(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	reg, err := a.registry()
	if err != nil {
		return nil, nil, err
	}

	runner, release, err := a.runner(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	s := scheduler.New(runner, a.log)

	for _, src := range a.cfg.Scheduled() {
		c, err := reg.Get(src.Topic)
		if err != nil {
			release()

			return nil, nil, err
		}

		if err := s.Add(src.Schedule, c); err != nil {
			release()

			return nil, nil, err
		}
	}

	return s, release, nil
}
