package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chainprobe",
	Short: "Cryptocurrency balance resolver",
	Long: `chainprobe resolves BTC and USDT balances for arbitrary addresses by
querying public blockchain APIs. Each asset class is backed by several
independent providers; failed providers are retried and then skipped in
favor of the next one, so a single flaky explorer never breaks a lookup.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for local development; real deployments set
		// CHAINPROBE_* variables directly.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json, pretty)")
}
