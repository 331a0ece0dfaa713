// dashboard serves live market and chain data for a ledger dashboard.
//
// Usage:
//
//	dashboard serve --config configs/dashboard.example.yaml
//	dashboard probe --rest-url http://localhost:1317
//	dashboard watch --url ws://localhost:8080/ws
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/ledger-dashboard/internal/config"
	"github.com/rickgao/ledger-dashboard/internal/poller"
	"github.com/rickgao/ledger-dashboard/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dashboard",
		Short:        "Ledger dashboard backend",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path (defaults apply when empty)")
	root.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pollers and serve the API",
		RunE:  runServe,
	}
	root.AddCommand(serveCmd)

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Poll the market once and print the record",
		RunE:  runProbe,
	}
	probeCmd.Flags().String("rest-url", "", "chain REST URL (overrides chain.rest_url)")
	probeCmd.Flags().Bool("network", false, "also fetch network status")
	root.AddCommand(probeCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print updates from a running dashboard's stream",
		RunE:  runWatch,
	}
	watchCmd.Flags().String("url", "", "stream URL (default ws://localhost:<server.port>/ws)")
	watchCmd.Flags().Bool("verbose", false, "print full message JSON")
	root.AddCommand(watchCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
	root.AddCommand(versionCmd)

	return root
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.DashboardConfig, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if _, err := config.ParseLevel(level); err != nil {
			return nil, nil, err
		}
		cfg.Log.Level = level
	}

	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	return cfg, logger, nil
}

// chainPollerConfig maps network settings onto the chain poller. Each request
// is bounded by chain.timeout and the whole cycle, retries included, by
// network.timeout.
func chainPollerConfig(cfg *config.DashboardConfig) poller.ChainConfig {
	return poller.ChainConfig{
		Interval:      cfg.Network.Interval,
		Timeout:       cfg.Network.Timeout,
		StaleAfter:    cfg.Network.StaleAfter,
		ValidatorSet:  cfg.Network.ValidatorSet,
		TransferLimit: cfg.Network.TransferLimit,
	}
}
