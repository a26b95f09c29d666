package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/naka-gawa/github-open-items/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) CurrentUser(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *mockFetcher) ListOpenIssues(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error) {
	args := m.Called(ctx, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *mockFetcher) ListOpenPullRequests(ctx context.Context, repo domain.Repository, limit int) ([]domain.Item, error) {
	args := m.Called(ctx, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

var (
	repoA = domain.Repository{FullName: "alice/repoA", Owner: "alice", Name: "repoA"}
	repoB = domain.Repository{FullName: "alice/repoB", Owner: "alice", Name: "repoB"}
	repoC = domain.Repository{FullName: "bob/repoC", Owner: "bob", Name: "repoC"}
)

func items(numbers ...int) []domain.Item {
	out := make([]domain.Item, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, domain.Item{Number: n, Title: "t", Author: "alice", URL: "https://github.com/x"})
	}
	return out
}

// TestAggregator_Aggregate uses a table-driven approach to test the aggregator.
func TestAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name            string
		setup           func(f *mockFetcher)
		expectedResults []domain.RepositoryResult
		expectedSummary domain.Summary
		expectedOutput  string
		expectError     bool
	}{
		{
			name: "happy path - only repositories owned by the user are fetched",
			setup: func(f *mockFetcher) {
				f.On("CurrentUser", mock.Anything).Return("alice", nil)
				f.On("ListRepositories", mock.Anything).Return([]domain.Repository{repoA, repoB, repoC}, nil)
				f.On("ListOpenIssues", mock.Anything, repoA, DefaultMaxItems).Return(items(1, 2), nil)
				f.On("ListOpenPullRequests", mock.Anything, repoA, DefaultMaxItems).Return(items(3), nil)
				f.On("ListOpenIssues", mock.Anything, repoB, DefaultMaxItems).Return([]domain.Item{}, nil)
				f.On("ListOpenPullRequests", mock.Anything, repoB, DefaultMaxItems).Return([]domain.Item{}, nil)
			},
			expectedResults: []domain.RepositoryResult{
				{Repository: "alice/repoA", Issues: items(1, 2), PullRequests: items(3)},
				{Repository: "alice/repoB", Issues: []domain.Item{}, PullRequests: []domain.Item{}},
			},
			expectedSummary: domain.Summary{Repositories: 2, Issues: 2, PullRequests: 1},
			expectedOutput:  "Authenticated as: alice\n\nFetching your repositories...\nFound 2 repositories. Processing...\n",
		},
		{
			name: "per-repository error - permission error is recorded and excluded from totals",
			setup: func(f *mockFetcher) {
				f.On("CurrentUser", mock.Anything).Return("alice", nil)
				f.On("ListRepositories", mock.Anything).Return([]domain.Repository{repoA, repoB}, nil)
				f.On("ListOpenIssues", mock.Anything, repoA, DefaultMaxItems).Return(items(1, 2), nil)
				f.On("ListOpenPullRequests", mock.Anything, repoA, DefaultMaxItems).Return(nil, errors.New("403 Resource not accessible"))
				f.On("ListOpenIssues", mock.Anything, repoB, DefaultMaxItems).Return(items(5), nil)
				f.On("ListOpenPullRequests", mock.Anything, repoB, DefaultMaxItems).Return([]domain.Item{}, nil)
			},
			expectedResults: []domain.RepositoryResult{
				{Repository: "alice/repoA", Error: "403 Resource not accessible"},
				{Repository: "alice/repoB", Issues: items(5), PullRequests: []domain.Item{}},
			},
			expectedSummary: domain.Summary{Repositories: 2, Issues: 1, PullRequests: 0},
			expectedOutput:  "Authenticated as: alice\n\nFetching your repositories...\nFound 2 repositories. Processing...\n",
		},
		{
			name: "error case - authentication fails",
			setup: func(f *mockFetcher) {
				f.On("CurrentUser", mock.Anything).Return("", errors.New("401 Bad credentials"))
			},
			expectError: true,
		},
		{
			name: "error case - repository enumeration fails",
			setup: func(f *mockFetcher) {
				f.On("CurrentUser", mock.Anything).Return("alice", nil)
				f.On("ListRepositories", mock.Anything).Return(nil, errors.New("502 Bad Gateway"))
			},
			expectError: true,
		},
		{
			name: "empty case - user owns no repositories",
			setup: func(f *mockFetcher) {
				f.On("CurrentUser", mock.Anything).Return("alice", nil)
				f.On("ListRepositories", mock.Anything).Return([]domain.Repository{repoC}, nil)
			},
			expectedResults: []domain.RepositoryResult{},
			expectedSummary: domain.Summary{},
			expectedOutput:  "Authenticated as: alice\n\nFetching your repositories...\nFound 0 repositories. Processing...\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx := context.Background()
			logger := log.New(io.Discard, "", 0)
			fetcher := new(mockFetcher)
			tc.setup(fetcher)
			var out bytes.Buffer

			aggregator := NewAggregator(fetcher, DefaultMaxItems, DefaultWorkers, &out, logger)

			// --- Act ---
			report, err := aggregator.Aggregate(ctx)

			// --- Assert ---
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, report)
			} else {
				require.NoError(t, err)
				// Results arrive in completion order, so compare as a set.
				assert.ElementsMatch(t, tc.expectedResults, report.Results)
				assert.Equal(t, tc.expectedSummary, report.Summary)
				assert.Equal(t, tc.expectedOutput, out.String())
			}

			fetcher.AssertExpectations(t)
			fetcher.AssertNotCalled(t, "ListOpenIssues", mock.Anything, repoC, mock.Anything)
		})
	}
}
