// Package render writes a domain.Report for people (Text) or for tools (JSON).
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/naka-gawa/github-open-items/internal/domain"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want %q or %q)", s, FormatText, FormatJSON)
	}
}

// Write renders report to w in the given format.
func Write(w io.Writer, format Format, report *domain.Report) error {
	if format == FormatJSON {
		return JSON(w, report)
	}
	return Text(w, report)
}

// Text prints each repository in collection order, followed by a summary.
// Failed repositories are shown with their error only.
func Text(w io.Writer, report *domain.Report) error {
	p := &printer{w: w}
	p.printf("\n--- Results (processed in %.2f seconds) ---\n", report.Elapsed.Seconds())

	for _, result := range report.Results {
		if result.Failed() {
			p.printf("\n--- Repository: %s (Error: %s) ---\n", result.Repository, result.Error)
			continue
		}

		p.printf("\n--- Repository: %s ---\n", result.Repository)
		p.items("Issue", result.Issues, "No open issues.")
		p.items("PR", result.PullRequests, "No open pull requests.")
	}

	p.printf("\n--- Summary ---\n")
	p.printf("Total repositories: %d\n", report.Summary.Repositories)
	p.printf("Total open issues: %d\n", report.Summary.Issues)
	p.printf("Total open PRs: %d\n", report.Summary.PullRequests)
	return p.err
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, report *domain.Report) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(jsonData)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// printer remembers the first write error so Text can report it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) items(kind string, items []domain.Item, empty string) {
	if len(items) == 0 {
		p.printf("  %s\n", empty)
		return
	}
	for _, it := range items {
		p.printf("  [%s #%d] %s\n", kind, it.Number, it.Title)
		p.printf("    - Author: %s\n", it.Author)
		p.printf("    - URL: %s\n", it.URL)
	}
}
