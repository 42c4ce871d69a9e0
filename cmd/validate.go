package cmd

import (
	"log/slog"

	"github.com/chainprobe/chainprobe/internal/config"
	"github.com/chainprobe/chainprobe/internal/logger"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file syntax and values without running the application.`,
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	// Setup logger
	logger.Setup(logLevel, logFormat)

	// Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	slog.Info("✓ Configuration valid",
		"http_port", cfg.HTTPPort,
		"log_level", cfg.LogLevel,
		"cache_ttl", cfg.CacheTTL,
		"cache_sweep_interval", cfg.CacheSweepInterval,
		"fetch_max_attempts", cfg.FetchMaxAttempts,
		"endpoint_overrides", len(cfg.Endpoints),
	)

	return nil
}
