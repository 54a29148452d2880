package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

type stubCrawler struct{ topic string }

func (c stubCrawler) Info() crawler.Info { return crawler.Info{Topic: c.topic} }

func (c stubCrawler) Crawl(context.Context) (*crawler.RawData, error) { return &crawler.RawData{}, nil }

func (c stubCrawler) Process(*crawler.RawData, *normalizer.Report) (*table.Table, error) {
	return table.New("period"), nil
}

type recordingRunner struct {
	mu     sync.Mutex
	topics []string
	fail   map[string]bool
	active int
	peak   int
}

func (r *recordingRunner) Run(_ context.Context, c crawler.Crawler) (*crawler.Result, error) {
	r.mu.Lock()
	r.active++
	r.peak = max(r.peak, r.active)
	r.topics = append(r.topics, c.Info().Topic)
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	if r.fail[c.Info().Topic] {
		return nil, errors.New("upstream down")
	}

	return &crawler.Result{Topic: c.Info().Topic, Category: c.Info().Category()}, nil
}

func TestAdd_ListsAndReplaces(t *testing.T) {
	s := New(&recordingRunner{}, nil)

	require.NoError(t, s.Add("0 6 * * *", stubCrawler{topic: "HIBOR"}))
	require.NoError(t, s.Add("@daily", stubCrawler{topic: "GDP"}))
	require.NoError(t, s.Add("@weekly", stubCrawler{topic: "HIBOR"}))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "GDP", entries[0].Topic)
	assert.Equal(t, "HIBOR", entries[1].Topic)
	assert.Equal(t, "@weekly", entries[1].Schedule)

	assert.True(t, s.Remove("GDP"))
	assert.False(t, s.Remove("GDP"))
	assert.Len(t, s.Entries(), 1)
}

func TestAdd_InvalidSpec(t *testing.T) {
	s := New(&recordingRunner{}, nil)

	err := s.Add("every morning", stubCrawler{topic: "HIBOR"})
	require.Error(t, err)
	assert.Empty(t, s.Entries())
}

func TestRun_CallsOnSuccessOnlyForSuccesses(t *testing.T) {
	runner := &recordingRunner{fail: map[string]bool{"GDP": true}}
	s := New(runner, nil)

	var done []string
	s.OnSuccess = func(res *crawler.Result) { done = append(done, res.Category) }

	s.run(context.Background(), stubCrawler{topic: "HIBOR"})
	s.run(context.Background(), stubCrawler{topic: "GDP"})

	assert.Equal(t, []string{"HIBOR", "GDP"}, runner.topics)
	assert.Equal(t, []string{"hibor"}, done)
}

func TestRun_NeverOverlaps(t *testing.T) {
	runner := &recordingRunner{}
	s := New(runner, nil)

	var wg sync.WaitGroup
	for _, topic := range []string{"A", "B", "C", "D"} {
		wg.Add(1)

		go func() {
			defer wg.Done()
			s.run(context.Background(), stubCrawler{topic: topic})
		}()
	}

	wg.Wait()

	assert.Len(t, runner.topics, 4)
	assert.Equal(t, 1, runner.peak)
}

func TestStartStop_FiresJobs(t *testing.T) {
	runner := &recordingRunner{}
	s := New(runner, nil)

	fired := make(chan struct{}, 1)
	s.OnSuccess = func(*crawler.Result) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}

	require.NoError(t, s.Add("@every 1s", stubCrawler{topic: "HIBOR"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	assert.False(t, s.Entries()[0].Next.IsZero())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not fire")
	}

	s.Stop()
}
