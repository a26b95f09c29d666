package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/github-open-items/internal/credential"
	"github.com/naka-gawa/github-open-items/internal/gateway"
	"github.com/naka-gawa/github-open-items/internal/render"
	"github.com/naka-gawa/github-open-items/internal/usecase"
	"github.com/spf13/cobra"
)

// reportOptions holds the flag and environment configuration of a run.
type reportOptions struct {
	workers    int
	maxItems   int
	output     string
	tokenEnv   string
	apiURL     string
	graphqlURL string
}

// applyEnvOverrides fills the enterprise endpoints from the environment.
func (o *reportOptions) applyEnvOverrides() {
	if o.apiURL == "" {
		o.apiURL = os.Getenv("GITHUB_API_URL")
	}
	if o.graphqlURL == "" {
		o.graphqlURL = os.Getenv("GITHUB_GRAPHQL_URL")
	}
}

func (o *reportOptions) validate() (render.Format, error) {
	if o.workers < 1 {
		return "", fmt.Errorf("--workers must be at least 1, got %d", o.workers)
	}
	if o.maxItems < 1 {
		return "", fmt.Errorf("--max-items must be at least 1, got %d", o.maxItems)
	}
	return render.ParseFormat(o.output)
}

func (o *reportOptions) gatewayOptions() []gateway.Option {
	opts := []gateway.Option{gateway.WithPerPage(gateway.DefaultPerPage)}
	if o.apiURL != "" {
		opts = append(opts, gateway.WithBaseURL(o.apiURL))
	}
	if o.graphqlURL != "" {
		opts = append(opts, gateway.WithGraphQLURL(o.graphqlURL))
	}
	return opts
}

type tokenResolver interface {
	Resolve() (string, error)
}

type gatewayFactory func(token string, logger *log.Logger, opts ...gateway.Option) (gateway.Fetcher, error)

const banner = `--- GitHub Issue and PR Checker ---
This tool checks for open issues and pull requests in your repositories.
You will need a GitHub personal access token with 'repo' scope.
You can create one at: https://github.com/settings/tokens
To avoid entering the token every time, set it in the %s environment variable.
`

// runReport resolves the token, aggregates the report and renders it to stdout.
// Progress lines go to stdout for text output and to stderr for JSON, so that
// JSON output stays machine-readable.
func runReport(ctx context.Context, opts reportOptions, resolver tokenResolver, newGateway gatewayFactory, stdout, stderr io.Writer, logger *log.Logger) error {
	format, err := opts.validate()
	if err != nil {
		return err
	}
	progress := stdout
	if format == render.FormatJSON {
		progress = stderr
	}
	fmt.Fprintf(progress, banner, opts.tokenEnv)

	token, err := resolver.Resolve()
	if err != nil {
		return err
	}

	githubGateway, err := newGateway(token, logger, opts.gatewayOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	aggregator := usecase.NewAggregator(githubGateway, opts.maxItems, opts.workers, progress, logger)

	report, err := aggregator.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate open items: %w", err)
	}
	return render.Write(stdout, format, report)
}

var reportOpts = reportOptions{}

func runReportCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}

	opts := reportOpts
	opts.applyEnvOverrides()
	resolver := credential.NewResolver(opts.tokenEnv)

	err := runReport(ctx, opts, resolver, gateway.NewGitHubGateway, os.Stdout, os.Stderr, logger)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrNoToken):
		fmt.Fprintln(os.Stderr, "No GitHub token provided. Exiting.")
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.IntVar(&reportOpts.workers, "workers", usecase.DefaultWorkers, "Number of repositories fetched concurrently")
	flags.IntVar(&reportOpts.maxItems, "max-items", usecase.DefaultMaxItems, "Maximum open issues and pull requests listed per repository")
	flags.StringVarP(&reportOpts.output, "output", "o", string(render.FormatText), "Output format (text or json)")
	flags.StringVar(&reportOpts.tokenEnv, "token-env", credential.DefaultEnvVar, "Environment variable holding the GitHub token")
}
