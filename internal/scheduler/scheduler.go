// Package scheduler re-crawls sources on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/logger"
)

// Runner executes one crawler.
type Runner interface {
	Run(ctx context.Context, c crawler.Crawler) (*crawler.Result, error)
}

// Entry describes one scheduled source.
type Entry struct {
	Topic    string
	Schedule string
	Next     time.Time
}

// Scheduler runs crawlers on their schedules. Runs never overlap: a job
// still running when its next tick fires is skipped, and different jobs
// wait for each other.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	log     *logger.Logger
	running sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]scheduled

	// OnSuccess is called after every successful run, e.g. to drop a cached table.
	OnSuccess func(res *crawler.Result)
}

type scheduled struct {
	id   cron.EntryID
	spec string
}

// New creates a new Scheduler instance.
func New(runner Runner, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}

	adapter := cronLogger{log: log}

	return &Scheduler{
		cron:    cron.New(cron.WithLogger(adapter), cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter))),
		runner:  runner,
		log:     log,
		ctx:     context.Background(),
		entries: make(map[string]scheduled),
	}
}

// Add schedules c with a standard five-field cron spec or a descriptor
// such as "@daily". Adding a topic again replaces its schedule.
func (s *Scheduler) Add(spec string, c crawler.Crawler) error {
	topic := c.Info().Topic

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[topic]; ok {
		s.cron.Remove(prev.id)
		delete(s.entries, topic)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(s.context(), c) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s with %q: %w", topic, spec, err)
	}

	s.entries[topic] = scheduled{id: id, spec: spec}
	s.log.Info("source scheduled", "topic", topic, "schedule", spec)

	return nil
}

// Remove unschedules a topic and reports whether it was scheduled.
func (s *Scheduler) Remove(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[topic]
	if ok {
		s.cron.Remove(e.id)
		delete(s.entries, topic)
	}

	return ok
}

// Entries lists scheduled sources ordered by topic. Next is zero until Start.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))

	for topic, e := range s.entries {
		out = append(out, Entry{Topic: topic, Schedule: e.spec, Next: s.cron.Entry(e.id).Next})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })

	return out
}

// Start begins firing jobs. Runs use ctx; cancelling it aborts runs in flight.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("scheduler started", "sources", len(s.Entries()))
}

// Stop prevents new runs and waits for the running one to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, c crawler.Crawler) {
	s.running.Lock()
	defer s.running.Unlock()

	topic := c.Info().Topic
	s.log.Info("scheduled crawl triggered", "topic", topic)

	res, err := s.runner.Run(ctx, c)
	if err != nil {
		s.log.Error("scheduled crawl failed", "topic", topic, "error", err)

		return
	}

	if s.OnSuccess != nil {
		s.OnSuccess(res)
	}
}

// cronLogger routes cron's own messages into the project logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
