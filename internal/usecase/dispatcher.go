package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-open-items/internal/domain"
)

// DefaultWorkers is the number of repositories fetched concurrently.
const DefaultWorkers = 5

// Fetch collects the result for a single repository.
type Fetch func(ctx context.Context, repo domain.Repository) domain.RepositoryResult

// DroppedRepository is a repository whose fetch failed unexpectedly.
// It is left out of the report.
type DroppedRepository struct {
	Repository string
	Err        error
}

// Outcome is what a dispatch produced.
type Outcome struct {
	// Results are in completion order.
	Results []domain.RepositoryResult
	Dropped []DroppedRepository
	Elapsed time.Duration
	Latency Latency
}

// Latency summarizes per-repository fetch durations.
type Latency struct {
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
}

// Dispatcher runs a Fetch for many repositories on a bounded worker pool.
type Dispatcher struct {
	fetch   Fetch
	workers int
	logger  *log.Logger
}

// NewDispatcher creates a new Dispatcher instance.
func NewDispatcher(fetch Fetch, workers int, logger *log.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		fetch:   fetch,
		workers: workers,
		logger:  logger,
	}
}

// OwnedBy returns the repositories whose owner is login, preserving order.
func OwnedBy(repos []domain.Repository, login string) []domain.Repository {
	owned := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if r.Owner == login {
			owned = append(owned, r)
		}
	}
	return owned
}

type taskResult struct {
	repo     domain.Repository
	result   domain.RepositoryResult
	err      error
	duration time.Duration
}

// Dispatch fetches every repository, at most d.workers at a time, and collects
// results as tasks complete. A task that panics is logged and dropped; the
// other repositories are unaffected.
func (d *Dispatcher) Dispatch(ctx context.Context, repos []domain.Repository) *Outcome {
	d.logger.Printf("Usecase: Dispatching %d repositories to %d workers...\n", len(repos), d.workers)
	start := time.Now()

	completed := make(chan taskResult)
	var eg errgroup.Group
	eg.SetLimit(d.workers)

	go func() {
		for _, repo := range repos {
			eg.Go(func() error {
				completed <- d.run(ctx, repo)
				return nil
			})
		}
		_ = eg.Wait()
		close(completed)
	}()

	outcome := &Outcome{Results: make([]domain.RepositoryResult, 0, len(repos))}
	durations := make([]float64, 0, len(repos))
	for tr := range completed {
		durations = append(durations, tr.duration.Seconds())
		if tr.err != nil {
			d.logger.Printf("Usecase: dropping %s: %v\n", tr.repo.FullName, tr.err)
			outcome.Dropped = append(outcome.Dropped, DroppedRepository{Repository: tr.repo.FullName, Err: tr.err})
			continue
		}
		outcome.Results = append(outcome.Results, tr.result)
	}
	outcome.Elapsed = time.Since(start)
	outcome.Latency = summarizeLatency(durations)

	d.logger.Printf("Usecase: Dispatch complete in %s (fetch latency median=%s p95=%s max=%s).\n",
		outcome.Elapsed, outcome.Latency.Median, outcome.Latency.P95, outcome.Latency.Max)
	return outcome
}

func (d *Dispatcher) run(ctx context.Context, repo domain.Repository) (tr taskResult) {
	tr.repo = repo
	start := time.Now()
	defer func() {
		tr.duration = time.Since(start)
		if r := recover(); r != nil {
			tr.err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	tr.result = d.fetch(ctx, repo)
	return tr
}

func summarizeLatency(seconds []float64) Latency {
	if len(seconds) == 0 {
		return Latency{}
	}
	data := stats.Float64Data(seconds)
	median, _ := stats.Median(data)
	maxSeconds, _ := stats.Max(data)
	p95, err := stats.Percentile(data, 95)
	if err != nil {
		// too few samples to interpolate
		p95 = maxSeconds
	}
	return Latency{
		Median: toDuration(median),
		P95:    toDuration(p95),
		Max:    toDuration(maxSeconds),
	}
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
