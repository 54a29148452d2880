// Package main provides the bogo command-line tool: crawl sources, inspect
// snapshots and serve them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bogoinsight/internal/catalog"
	"bogoinsight/internal/config"
	"bogoinsight/internal/crawler"
	"bogoinsight/internal/crawler/sources"
	"bogoinsight/internal/export"
	"bogoinsight/internal/logger"
)

const defaultConfigPath = "configs/bogo.yaml"

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	log        *logger.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bogo",
		Short:         "Crawl public data sources into dated CSV snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		fmt.Sprintf("path to YAML configuration (default $%s or %s when present)", config.EnvConfigPath, defaultConfigPath))

	root.AddCommand(
		newCrawlCommand(a),
		newSourcesCommand(a),
		newListCommand(a),
		newLatestCommand(a),
		newShowCommand(a),
		newVerifyCommand(a),
		newServeCommand(a),
		newScheduleCommand(a),
	)

	return root
}

// load reads .env, then the configuration file, then environment overrides.
func (a *app) load() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	path := a.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}

	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg := config.Default()

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	a.cfg = cfg
	a.log = logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	a.log.Debug("configuration loaded", "path", path, "config", cfg.String())

	return nil
}

func (a *app) registry() (*crawler.Registry, error) {
	return sources.NewRegistry(sources.NewFetcher(a.cfg), a.cfg)
}

func (a *app) store() *export.Store {
	return export.NewStore(a.cfg.Crawler.Output.BasePath)
}

// openCatalog returns nil when the catalog is disabled.
func (a *app) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if !a.cfg.Catalog.Enabled {
		return nil, nil
	}

	return catalog.Open(ctx, a.cfg.Catalog.Path)
}

// runner builds a Runner; the returned func releases the catalog.
func (a *app) runner(ctx context.Context) (*crawler.Runner, func(), error) {
	cat, err := a.openCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	w := export.NewWriter(a.cfg.Crawler.Output.BasePath, nil)

	if cat == nil {
		return crawler.NewRunner(w, nil, a.log), func() {}, nil
	}

	closeFn := func() {
		if err := cat.Close(); err != nil {
			a.log.Warn("failed to close catalog", "error", err)
		}
	}

	return crawler.NewRunner(w, cat, a.log), closeFn, nil
}
