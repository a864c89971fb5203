package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "paywall-split",
	Short: "Paywall split testing - assign visitors to paywall variants and collect conversions",
	Long: `paywall-split assigns visitors to paywall variants, serves the variant
markup and client script, and collects impression and conversion events.
Single Go binary, embedded SQLite.

Running without a subcommand starts the server (same as 'paywall-split serve').`,
	SilenceUsage: true,
	RunE:         runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("PAYWALL_DB_PATH", "./paywall-split.db"), "database path")
	addServeFlags(rootCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
