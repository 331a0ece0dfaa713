package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/ledger-dashboard/internal/connection"
	"github.com/rickgao/ledger-dashboard/internal/server"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = fmt.Sprintf("ws://localhost:%d/ws", cfg.Server.Port)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchCfg := connection.DefaultWatcherConfig()
	watchCfg.Client.URL = url

	out := cmd.OutOrStdout()
	w := connection.NewWatcher(watchCfg, logger)
	return w.Run(ctx, func(msg connection.StreamMessage, received time.Time) {
		printMessage(out, msg, received, verbose)
	})
}

// printMessage writes one stream message as a console line.
func printMessage(out io.Writer, msg connection.StreamMessage, received time.Time, verbose bool) {
	ts := received.Format("15:04:05.000")

	if verbose {
		data, _ := json.Marshal(msg)
		fmt.Fprintf(out, "[%s] %s\n", ts, data)
		return
	}

	switch {
	case msg.ObservedAt == nil:
		fmt.Fprintf(out, "[%s] waiting for first poll\n", ts)
	case msg.Market == nil:
		fmt.Fprintf(out, "[%s] %s\n", ts, server.NoMarketDisplay)
	default:
		fmt.Fprintf(out, "[%s] price=%s volume=%s time=%s\n",
			ts, msg.Display, msg.Market.Volume, msg.Market.Time)
	}
}
