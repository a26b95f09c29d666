// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-open-items/internal/domain"
)

// DefaultPerPage is the page size requested from list endpoints.
const DefaultPerPage = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	CurrentUser(ctx context.Context) (string, error)
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	ListOpenIssues(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error)
	ListOpenPullRequests(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// It is safe for concurrent use.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	perPage       int
	logger        *log.Logger
}

type settings struct {
	perPage    int
	baseURL    string
	graphqlURL string
}

// Option configures a GitHubGateway.
type Option func(*settings)

// WithPerPage sets the page size for list endpoints.
func WithPerPage(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithBaseURL points the REST client at a GitHub Enterprise API root,
// e.g. https://github.example.com/api/v3/. Unless WithGraphQLURL is also
// given, the GraphQL endpoint is derived from it.
func WithBaseURL(rawURL string) Option {
	return func(s *settings) { s.baseURL = rawURL }
}

// WithGraphQLURL points the GraphQL client at a GitHub Enterprise endpoint,
// e.g. https://github.example.com/api/graphql.
func WithGraphQLURL(rawURL string) Option {
	return func(s *settings) { s.graphqlURL = rawURL }
}

// viewerQuery resolves the login of the token owner.
type viewerQuery struct {
	Viewer struct {
		Login githubv4.String
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger, opts ...Option) (Fetcher, error) {
	s := settings{perPage: DefaultPerPage}
	for _, opt := range opts {
		opt(&s)
	}

	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if s.baseURL != "" {
		baseURL, err := parseBaseURL(s.baseURL)
		if err != nil {
			return nil, err
		}
		restClient.BaseURL = baseURL
		if s.graphqlURL == "" {
			s.graphqlURL = graphqlURLFor(baseURL)
		}
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if s.graphqlURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(s.graphqlURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		perPage:       s.perPage,
		logger:        logger,
	}, nil
}

func parseBaseURL(rawURL string) (*url.URL, error) {
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API base URL %q: %w", rawURL, err)
	}
	return u, nil
}

// graphqlURLFor derives the GraphQL endpoint that sits next to a REST root,
// e.g. https://ghe.example.com/api/v3/ -> https://ghe.example.com/api/graphql.
func graphqlURLFor(restBase *url.URL) string {
	return restBase.ResolveReference(&url.URL{Path: "../graphql"}).String()
}

// CurrentUser returns the login of the authenticated user.
func (g *GitHubGateway) CurrentUser(ctx context.Context) (string, error) {
	var q viewerQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return "", fmt.Errorf("failed to fetch authenticated user: %w", err)
	}
	return string(q.Viewer.Login), nil
}

// ListRepositories lists every repository visible to the authenticated
// user, including ones owned by others. All pages are read before returning;
// callers filter by owner.
func (g *GitHubGateway) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	g.logger.Println("Fetching repositories of the authenticated user...")
	opts := &github.RepositoryListByAuthenticatedUserOptions{ListOptions: github.ListOptions{PerPage: g.perPage}}
	var repos []domain.Repository
	for {
		page, resp, err := g.restClient.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		for _, r := range page {
			repos = append(repos, domain.Repository{
				FullName: r.GetFullName(),
				Owner:    r.GetOwner().GetLogin(),
				Name:     r.GetName(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
		g.logger.Println("  Fetching next page of repositories...")
	}
	g.logger.Printf("Completed fetching %d repositories.\n", len(repos))
	return repos, nil
}

// ListOpenIssues returns up to limit open issues of repo, in listing order.
// Pull requests, which the issues endpoint also returns, are skipped.
// No further pages are requested once limit issues have been collected.
func (g *GitHubGateway) ListOpenIssues(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error) {
	items := []domain.Item{}
	if limit <= 0 {
		return items, nil
	}
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: g.perPage},
	}
	for {
		issues, resp, err := g.restClient.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list open issues of %s: %w", repo.FullName, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			items = append(items, domain.Item{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Author: issue.GetUser().GetLogin(),
				URL:    issue.GetHTMLURL(),
			})
			if len(items) >= limit {
				return items, nil
			}
		}
		if resp.NextPage == 0 {
			return items, nil
		}
		opts.ListOptions.Page = resp.NextPage
		g.logger.Printf("  Fetching next page of issues for %s...\n", repo.FullName)
	}
}

// ListOpenPullRequests returns up to limit open pull requests of repo, in listing order.
func (g *GitHubGateway) ListOpenPullRequests(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error) {
	items := []domain.Item{}
	if limit <= 0 {
		return items, nil
	}
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: g.perPage},
	}
	for {
		pulls, resp, err := g.restClient.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list open pull requests of %s: %w", repo.FullName, err)
		}
		for _, pr := range pulls {
			items = append(items, domain.Item{
				Number: pr.GetNumber(),
				Title:  pr.GetTitle(),
				Author: pr.GetUser().GetLogin(),
				URL:    pr.GetHTMLURL(),
			})
			if len(items) >= limit {
				return items, nil
			}
		}
		if resp.NextPage == 0 {
			return items, nil
		}
		opts.ListOptions.Page = resp.NextPage
		g.logger.Printf("  Fetching next page of pull requests for %s...\n", repo.FullName)
	}
}
