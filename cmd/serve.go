package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainprobe/chainprobe/internal/api"
	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/config"
	"github.com/chainprobe/chainprobe/internal/fetch"
	"github.com/chainprobe/chainprobe/internal/health"
	"github.com/chainprobe/chainprobe/internal/logger"
	"github.com/chainprobe/chainprobe/internal/provider"
	"github.com/chainprobe/chainprobe/internal/resolver"
	"github.com/chainprobe/chainprobe/internal/sweeper"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the balance resolution API server",
	Long:  `Start the HTTP server exposing balance resolution, health, and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Setup logger (log-level from global flag)
	logger.Setup(logLevel, logFormat)

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		slog.Info("Signal received, graceful shutdown", "signal", sig)
		cancel()
	}()

	// Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}

	// Override log level if set in config
	if cfg.LogLevel != "" || cfg.LogFormat != "" {
		logger.Setup(cfg.LogLevel, cfg.LogFormat)
	}

	registry := provider.NewRegistry(provider.Options{
		Endpoints:        cfg.Endpoints,
		TronUSDTContract: cfg.TronUSDTContract,
		EthUSDTContract:  cfg.EthUSDTContract,
		EthplorerAPIKey:  cfg.EthplorerAPIKey,
	})

	providerCount := 0
	for _, set := range registry.All() {
		providerCount += len(set.Providers)
	}

	slog.Info("Configuration loaded",
		"config_path", cfgFile,
		"providers", providerCount,
		"asset_classes", len(registry.All()),
		"cache_ttl", cfg.GetCacheTTL(),
		"endpoint_overrides", len(cfg.Endpoints),
	)

	fetcher := fetch.New(fetch.Options{
		MaxAttempts: cfg.FetchMaxAttempts,
		BaseDelay:   cfg.GetFetchBaseDelay(),
		Timeout:     cfg.GetFetchTimeout(),
		Logger:      slog.Default(),
	})

	store := cache.New(cfg.GetCacheTTL())

	engine := resolver.New(resolver.Options{
		Registry:     registry,
		Fetcher:      fetcher,
		Cache:        store,
		JitterBase:   cfg.GetJitterBase(),
		JitterSpread: cfg.GetJitterSpread(),
		Logger:       slog.Default(),
	})

	checker := health.NewChecker(registry, store)

	// Background cache sweeping (optional, disabled when interval is zero)
	if interval := cfg.GetCacheSweepInterval(); interval > 0 {
		sw, err := sweeper.New(store, interval, slog.Default())
		if err != nil {
			slog.Error("Failed to create cache sweeper", "error", err)
			return err
		}
		sw.Start()
		defer sw.Stop()
	} else {
		slog.Info("Cache sweeping disabled, stale entries evicted lazily on read")
	}

	// HTTP server
	srv := api.NewServer(cfg.HTTPPort, engine, checker, slog.Default())

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Ensure HTTP server shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("Shutdown requested, stopping server")
	return nil
}
