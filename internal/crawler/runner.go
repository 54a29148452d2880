package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bogoinsight/internal/catalog"
	"bogoinsight/internal/export"
	"bogoinsight/internal/logger"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
	"bogoinsight/pkg/metadata"
)

// Catalog is the bookkeeping the runner records snapshots in.
type Catalog interface {
	UpsertTopic(ctx context.Context, t catalog.Topic) error
	RecordVersion(ctx context.Context, v catalog.Version) (catalog.Version, error)
	LatestVersion(ctx context.Context, category string) (catalog.Version, error)
}

// Result describes one crawler run.
type Result struct {
	Topic        string
	Category     string
	Path         string
	Rows         int
	Columns      int
	Checksum     string
	Unchanged    bool
	Unmapped     []normalizer.Unmapped
	EmptyColumns []string
	Duration     time.Duration
	Table        *table.Table
	Err          error
}

// Runner drives crawlers through crawl, process, validate and export.
type Runner struct {
	writer    *export.Writer
	validator *normalizer.Validator
	catalog   Catalog
	log       *logger.Logger
	now       func() time.Time

	// DryRun stops after validation; nothing is written.
	DryRun bool
}

// NewRunner creates a new Runner instance. cat may be nil.
func NewRunner(w *export.Writer, cat Catalog, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}

	return &Runner{
		writer:    w,
		validator: normalizer.NewValidator(),
		catalog:   cat,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one crawler. A failure at any stage leaves the previous
// snapshot of the category untouched. When the encoded table matches the
// latest catalogued snapshot nothing is written and Path points at that
// snapshot.
func (r *Runner) Run(ctx context.Context, c Crawler) (*Result, error) {
	info := c.Info()
	start := r.now()
	res := &Result{Topic: info.Topic, Category: info.Category()}
	log := r.log.With("topic", info.Topic, "category", res.Category)

	log.Info("crawl started")

	raw, err := c.Crawl(ctx)
	if err != nil {
		return r.fail(log, res, "crawl", err)
	}

	report := normalizer.NewReport()

	t, err := c.Process(raw, report)
	if err != nil {
		return r.fail(log, res, "process", err)
	}

	res.Unmapped = report.Entries()
	if report.Len() > 0 {
		log.Warn("unmapped categorical values dropped", "count", report.Len(), "values", report.String())
	}

	empty, err := r.validator.Validate(t)
	if err != nil {
		return r.fail(log, res, "validate", err)
	}

	if len(empty) > 0 {
		log.Warn("columns with no values", "columns", strings.Join(empty, ", "))
	}

	res.EmptyColumns = empty
	res.Table = t
	res.Rows = t.Len()
	res.Columns = len(t.Columns())

	data, err := export.Encode(t)
	if err != nil {
		return r.fail(log, res, "encode", err)
	}

	meta := metadata.Describe(data, res.Rows, res.Columns, r.now())
	res.Checksum = meta.Hash

	prev, unchanged := r.unchanged(ctx, res.Category, meta)
	res.Unchanged = unchanged

	if r.DryRun {
		res.Duration = r.now().Sub(start)
		log.Info("dry run finished", "rows", res.Rows, "columns", res.Columns, "unchanged", res.Unchanged)

		return res, nil
	}

	if res.Unchanged {
		res.Path = prev.Path
		res.Duration = r.now().Sub(start)
		log.Info("crawl finished, snapshot unchanged",
			"rows", res.Rows, "columns", res.Columns, "path", res.Path, "duration", res.Duration)

		return res, nil
	}

	path, err := r.writer.Commit(res.Category, data)
	if err != nil {
		return r.fail(log, res, "export", err)
	}

	res.Path = path

	if err := r.record(ctx, info, res, meta); err != nil {
		// The snapshot is on disk; bookkeeping lag is only logged.
		log.Error("failed to record snapshot in catalog", "error", err)
	}

	res.Duration = r.now().Sub(start)
	log.Info("crawl finished",
		"rows", res.Rows, "columns", res.Columns, "path", res.Path,
		"unchanged", res.Unchanged, "duration", res.Duration)

	return res, nil
}

// RunAll runs crawlers one at a time. A failing crawler does not stop
// the others; every failure is returned joined.
func (r *Runner) RunAll(ctx context.Context, crawlers []Crawler) ([]*Result, error) {
	results := make([]*Result, 0, len(crawlers))

	var errs []error

	for _, c := range crawlers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}

		res, err := r.Run(ctx, c)
		if err != nil {
			errs = append(errs, err)
		}

		results = append(results, res)
	}

	summary := Summarize(results)
	r.log.Info("run summary", "summary", summary.String())

	return results, errors.Join(errs...)
}

func (r *Runner) fail(log *logger.Logger, res *Result, stage string, err error) (*Result, error) {
	res.Err = fmt.Errorf("%s %s: %w", res.Topic, stage, err)
	log.Error("crawl failed", "stage", stage, "error", err)

	return res, res.Err
}

// unchanged reports whether the latest catalogued snapshot of category has
// the same content and is still on disk.
func (r *Runner) unchanged(ctx context.Context, category string, meta metadata.Metadata) (catalog.Version, bool) {
	if r.catalog == nil {
		return catalog.Version{}, false
	}

	prev, err := r.catalog.LatestVersion(ctx, category)
	if err != nil || !meta.Same(metadata.Metadata{Hash: prev.Checksum}) {
		return catalog.Version{}, false
	}

	if _, err := os.Stat(prev.Path); err != nil {
		return catalog.Version{}, false
	}

	return prev, true
}

func (r *Runner) record(ctx context.Context, info Info, res *Result, meta metadata.Metadata) error {
	if r.catalog == nil {
		return nil
	}

	if err := r.catalog.UpsertTopic(ctx, catalog.Topic{
		Category:          res.Category,
		Name:              info.Topic,
		Description:       info.Description,
		Tags:              info.Tags,
		SourceDescription: info.SourceDescription,
	}); err != nil {
		return err
	}

	_, err := r.catalog.RecordVersion(ctx, catalog.Version{
		Category:  res.Category,
		Name:      filepath.Base(res.Path),
		Path:      res.Path,
		Checksum:  meta.Hash,
		Rows:      meta.Rows,
		Columns:   meta.Columns,
		CreatedAt: meta.CreatedAt,
	})

	return err
}

// Summary counts outcomes of a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Unchanged int
	Unmapped  int
	Failures  map[string]string
}

// Summarize folds results into a Summary.
func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results), Failures: make(map[string]string)}

	for _, res := range results {
		if res == nil {
			continue
		}

		if res.Err != nil {
			s.Failed++
			s.Failures[res.Topic] = res.Err.Error()

			continue
		}

		s.Succeeded++
		s.Unmapped += len(res.Unmapped)

		if res.Unchanged {
			s.Unchanged++
		}
	}

	return s
}

// String returns a string representation of the summary.
func (s Summary) String() string {
	return fmt.Sprintf("crawlers: %d total, %d succeeded, %d failed, %d unchanged | unmapped values: %d",
		s.Total, s.Succeeded, s.Failed, s.Unchanged, s.Unmapped)
}
