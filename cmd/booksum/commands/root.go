package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file.
	configPath string

	// apiURL overrides the service base URL.
	apiURL string

	// outputFormat controls output format (text, json).
	outputFormat string

	// debug lowers the log level to debug.
	debug bool

	// cacheDBPath overrides the cache database location.
	cacheDBPath string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "booksum",
	Short: "Book page extraction and summarization client",
	Long: `booksum drives a remote book summarization service.

Submit uploaded page images for text extraction, wait for the job, generate
a summary of the extracted text and browse, edit or delete stored summaries.
Recently viewed summaries are cached locally between invocations.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to config file (default: ~/.booksum/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&apiURL, "api-url", "",
		"Service base URL (default: http://localhost:8000/api)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", formatText,
		"Output format: text, json",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug, "debug", false,
		"Enable debug logging",
	)
	rootCmd.PersistentFlags().StringVar(
		&cacheDBPath, "cache-db", "",
		"Path to cache database (default: ~/.booksum/cache.db)",
	)

	// Add subcommands.
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
