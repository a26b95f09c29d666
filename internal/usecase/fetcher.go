// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"

	"github.com/naka-gawa/github-open-items/internal/domain"
	"github.com/naka-gawa/github-open-items/internal/gateway"
)

// DefaultMaxItems caps the issues and the pull requests kept per repository.
const DefaultMaxItems = 50

// RepositoryFetcher collects the open issues and pull requests of one repository.
type RepositoryFetcher struct {
	fetcher  gateway.Fetcher
	maxItems int
	logger   *log.Logger
}

// NewRepositoryFetcher creates a new RepositoryFetcher instance.
func NewRepositoryFetcher(fetcher gateway.Fetcher, maxItems int, logger *log.Logger) *RepositoryFetcher {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &RepositoryFetcher{
		fetcher:  fetcher,
		maxItems: maxItems,
		logger:   logger,
	}
}

// Fetch lists the open issues, then the open pull requests of repo.
// If either listing fails the result carries only the error message;
// anything collected before the failure is discarded.
func (f *RepositoryFetcher) Fetch(ctx context.Context, repo domain.Repository) domain.RepositoryResult {
	result := domain.RepositoryResult{Repository: repo.FullName}

	issues, err := f.fetcher.ListOpenIssues(ctx, repo, f.maxItems)
	if err != nil {
		f.logger.Printf("Usecase: %s: %v\n", repo.FullName, err)
		result.Error = err.Error()
		return result
	}

	prs, err := f.fetcher.ListOpenPullRequests(ctx, repo, f.maxItems)
	if err != nil {
		f.logger.Printf("Usecase: %s: %v\n", repo.FullName, err)
		result.Error = err.Error()
		return result
	}

	result.Issues = issues
	result.PullRequests = prs
	return result
}
