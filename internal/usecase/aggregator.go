package usecase

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/naka-gawa/github-open-items/internal/domain"
	"github.com/naka-gawa/github-open-items/internal/gateway"
)

// Aggregator is the use case for aggregating open issues and pull requests.
// It orchestrates authentication, repository enumeration and the concurrent fetch.
type Aggregator struct {
	fetcher  gateway.Fetcher
	maxItems int
	workers  int
	out      io.Writer
	logger   *log.Logger
}

// NewAggregator creates a new Aggregator instance.
// Progress lines are written to out.
func NewAggregator(fetcher gateway.Fetcher, maxItems, workers int, out io.Writer, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		maxItems: maxItems,
		workers:  workers,
		out:      out,
		logger:   logger,
	}
}

// Aggregate performs the main business logic.
// Failing to identify the user or to list repositories aborts the run;
// failures of individual repositories do not.
func (a *Aggregator) Aggregate(ctx context.Context) (*domain.Report, error) {
	a.logger.Println("Usecase: Starting data aggregation...")

	login, err := a.fetcher.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "Authenticated as: %s\n", login)

	fmt.Fprintln(a.out, "\nFetching your repositories...")
	repos, err := a.fetcher.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	owned := OwnedBy(repos, login)
	fmt.Fprintf(a.out, "Found %d repositories. Processing...\n", len(owned))

	repoFetcher := NewRepositoryFetcher(a.fetcher, a.maxItems, a.logger)
	dispatcher := NewDispatcher(repoFetcher.Fetch, a.workers, a.logger)
	outcome := dispatcher.Dispatch(ctx, owned)
	for _, dropped := range outcome.Dropped {
		fmt.Fprintf(a.out, "Error processing %s: %v\n", dropped.Repository, dropped.Err)
	}

	a.logger.Println("Usecase: Aggregation complete.")
	return domain.NewReport(outcome.Results, outcome.Elapsed), nil
}
