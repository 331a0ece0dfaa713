package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/ledger-dashboard/internal/api"
	"github.com/rickgao/ledger-dashboard/internal/ledger"
	"github.com/rickgao/ledger-dashboard/internal/poller"
	"github.com/rickgao/ledger-dashboard/internal/server"
	"github.com/rickgao/ledger-dashboard/internal/version"
)

// probeResult is printed by the probe command.
type probeResult struct {
	server.MarketResponse
	Reason  string              `json:"reason,omitempty"`
	Network *ledger.NetworkView `json:"network,omitempty"`
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if restURL, _ := cmd.Flags().GetString("rest-url"); restURL != "" {
		cfg.Chain.RestURL = restURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.Chain.RestURL, "",
		api.WithLogger(logger),
		api.WithTimeout(cfg.Market.Timeout),
		api.WithRetries(0, 0),
		api.WithUserAgent(version.UserAgent()),
	)

	p := poller.New(poller.Config{
		Interval: cfg.Market.Interval,
		Timeout:  cfg.Market.Timeout,
		Org:      cfg.Chain.Org,
		Repo:     cfg.Chain.Repo,
	}, client, nil, logger)
	u := p.Poll(ctx)

	observed := u.ObservedAt.UTC()
	result := probeResult{
		MarketResponse: server.MarketResponse{
			Display:    server.NoMarketDisplay,
			ObservedAt: &observed,
		},
		Reason: u.Reason,
	}
	if u.Point != nil {
		result.Market = u.Point
		result.Display = u.Point.Display(cfg.Market.QuoteUnit)
	}

	if withNetwork, _ := cmd.Flags().GetBool("network"); withNetwork {
		state := ledger.NewState()
		chain := poller.NewChain(chainPollerConfig(cfg), client, state, logger)
		chain.Poll(ctx)

		if status, ok := state.Status(); ok {
			view := ledger.Display{
				DisplayDenom:  cfg.Network.DisplayDenom,
				Exponent:      cfg.Network.DenomExponent,
				AddressPrefix: cfg.Network.AddressPrefix,
			}.Network(status)
			result.Network = &view
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
