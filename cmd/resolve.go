package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainprobe/chainprobe/internal/config"
	"github.com/chainprobe/chainprobe/internal/fetch"
	"github.com/chainprobe/chainprobe/internal/logger"
	"github.com/chainprobe/chainprobe/internal/provider"
	"github.com/chainprobe/chainprobe/internal/resolver"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var resolveAsset string

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Resolve a single balance and print the result",
	Long: `Resolve the balance of one address without starting the server. The result
is printed to stdout as JSON in the same shape the HTTP API returns.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveAsset, "asset", "btc", "asset class (btc, usdt-trc20, usdt-erc20)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger.Setup(logLevel, logFormat)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}

	class, err := provider.ParseClass(resolveAsset)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := provider.NewRegistry(provider.Options{
		Endpoints:        cfg.Endpoints,
		TronUSDTContract: cfg.TronUSDTContract,
		EthUSDTContract:  cfg.EthUSDTContract,
		EthplorerAPIKey:  cfg.EthplorerAPIKey,
	})

	engine := resolver.New(resolver.Options{
		Registry: registry,
		Fetcher: fetch.New(fetch.Options{
			MaxAttempts: cfg.FetchMaxAttempts,
			BaseDelay:   cfg.GetFetchBaseDelay(),
			Timeout:     cfg.GetFetchTimeout(),
			Logger:      slog.Default(),
		}),
		JitterBase:   cfg.GetJitterBase(),
		JitterSpread: cfg.GetJitterSpread(),
		Logger:       slog.Default(),
	})

	result, err := engine.Resolve(ctx, args[0], class)
	if err != nil {
		return err
	}

	out := struct {
		Address string           `json:"address"`
		Asset   string           `json:"asset"`
		Chain   string           `json:"chain"`
		Balance *decimal.Decimal `json:"balance,omitempty"`
		Cached  bool             `json:"cached"`
		Source  string           `json:"source,omitempty"`
		Reason  string           `json:"reason,omitempty"`
	}{
		Address: result.Address,
		Asset:   string(result.Class),
		Chain:   result.Class.Chain(),
		Cached:  result.Cached,
		Source:  result.Source,
		Reason:  result.Reason,
	}
	if result.Status == resolver.StatusSuccess {
		out.Balance = &result.Balance
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	if result.Status != resolver.StatusSuccess {
		return fmt.Errorf("resolution failed: %s", result.Reason)
	}
	return nil
}
