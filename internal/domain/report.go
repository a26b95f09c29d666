// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Repository identifies a single repository owned by some account.
type Repository struct {
	FullName string `json:"full_name"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
}

// Item is an open issue or pull request, reduced to what the report shows.
type Item struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// RepositoryResult holds the open issues and pull requests of one repository.
// When Error is set, Issues and PullRequests are left empty.
type RepositoryResult struct {
	Repository   string `json:"repository"`
	Issues       []Item `json:"issues"`
	PullRequests []Item `json:"pull_requests"`
	Error        string `json:"error,omitempty"`
}

// Failed reports whether fetching the repository failed.
func (r RepositoryResult) Failed() bool {
	return r.Error != ""
}

// Summary holds the totals printed at the end of a report.
type Summary struct {
	Repositories int `json:"repositories"`
	Issues       int `json:"issues"`
	PullRequests int `json:"pull_requests"`
}

// Summarize counts every result as a repository, and sums issues and pull
// requests over the results that did not fail.
func Summarize(results []RepositoryResult) Summary {
	s := Summary{Repositories: len(results)}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		s.Issues += len(r.Issues)
		s.PullRequests += len(r.PullRequests)
	}
	return s
}

// Report is the consolidated output of a single run.
type Report struct {
	Results []RepositoryResult `json:"results"`
	Summary Summary            `json:"summary"`
	Elapsed time.Duration      `json:"elapsed_ns"`
}

// NewReport builds a Report from collected results.
func NewReport(results []RepositoryResult, elapsed time.Duration) *Report {
	return &Report{
		Results: results,
		Summary: Summarize(results),
		Elapsed: elapsed,
	}
}
