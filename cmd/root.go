// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-open-items",
	Short: "Lists open issues and pull requests across your GitHub repositories.",
	Long: `github-open-items authenticates as the owner of a GitHub token and prints the
open issues and pull requests of every repository that user owns, followed by a
summary. Repositories are fetched concurrently.

The token is read from the GITHUB_TOKEN environment variable; when it is not
set you are prompted for it. The token needs the 'repo' scope to see private
repositories. You can create one at https://github.com/settings/tokens`,
	Args: cobra.NoArgs,
	Run:  runReportCommand,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
