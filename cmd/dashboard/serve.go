package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ledger-dashboard/internal/api"
	"github.com/rickgao/ledger-dashboard/internal/cache"
	"github.com/rickgao/ledger-dashboard/internal/config"
	"github.com/rickgao/ledger-dashboard/internal/connection"
	"github.com/rickgao/ledger-dashboard/internal/database"
	"github.com/rickgao/ledger-dashboard/internal/ledger"
	"github.com/rickgao/ledger-dashboard/internal/market"
	"github.com/rickgao/ledger-dashboard/internal/metrics"
	"github.com/rickgao/ledger-dashboard/internal/model"
	"github.com/rickgao/ledger-dashboard/internal/poller"
	"github.com/rickgao/ledger-dashboard/internal/router"
	"github.com/rickgao/ledger-dashboard/internal/server"
	"github.com/rickgao/ledger-dashboard/internal/version"
	"github.com/rickgao/ledger-dashboard/internal/writer"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"rest_url", cfg.Chain.RestURL,
		"pool", api.PoolPath(cfg.Chain.Org, cfg.Chain.Repo),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultNamespace)
	m.SetBuildInfo(version.Version, version.Commit)

	// The market client never retries: the next tick is the retry.
	marketClient := api.NewClient(cfg.Chain.RestURL, "",
		api.WithLogger(logger),
		api.WithTimeout(cfg.Market.Timeout),
		api.WithRetries(0, 0),
		api.WithUserAgent(version.UserAgent()),
	)
	chainClient := api.NewClient(cfg.Chain.RestURL, "",
		api.WithLogger(logger),
		api.WithTimeout(cfg.Chain.Timeout),
		api.WithRetries(cfg.Chain.MaxRetries, time.Second),
		api.WithUserAgent(version.UserAgent()),
	)

	board := market.NewBoard()
	state := ledger.NewState()
	display := ledger.Display{
		DisplayDenom:  cfg.Network.DisplayDenom,
		Exponent:      cfg.Network.DenomExponent,
		AddressPrefix: cfg.Network.AddressPrefix,
	}

	rtr := router.NewRouter(router.RouterConfig{BufferSize: cfg.Writer.BufferSize}, logger)

	hubCfg := connection.DefaultHubConfig()
	hubCfg.QuoteUnit = cfg.Market.QuoteUnit
	hub := connection.NewHub(hubCfg, board, logger)
	hub.SetObserver(m)
	hubBuf, err := subscribe(rtr, m, "ws")
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		QuoteUnit:       cfg.Market.QuoteUnit,
		MarketInterval:  cfg.Market.Interval,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, board, state, display, logger)
	srv.SetStream(hub)

	// Price history
	var priceWriter *writer.PriceWriter
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("database connected")

		buf, err := subscribe(rtr, m, "writer")
		if err != nil {
			return err
		}
		priceWriter = writer.NewPriceWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
		}, buf, pool, logger)
		priceWriter.SetObserver(m)
		srv.SetHistory(database.NewHistory(pool))
	}

	// Latest-price cache
	var redisCache *cache.RedisCache
	var cacheBuf *router.RingBuffer[model.MarketUpdate]
	if cfg.Cache.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, cfg.Cache,
			cache.Key(cfg.Chain.Org, cfg.Chain.Repo), cfg.Market.QuoteUnit, logger)
		if err != nil {
			return err
		}
		defer redisCache.Close()

		cacheBuf, err = subscribe(rtr, m, "cache")
		if err != nil {
			return err
		}
		srv.SetCache(redisCache)
		logger.Info("cache connected", "addr", cfg.Cache.Addr)
	}

	marketPoller := poller.New(poller.Config{
		Interval: cfg.Market.Interval,
		Timeout:  cfg.Market.Timeout,
		Org:      cfg.Chain.Org,
		Repo:     cfg.Chain.Repo,
	}, marketClient, poller.Handlers(board, m, rtr), logger)
	marketPoller.SetObserver(m)

	chainPoller := poller.NewChain(chainPollerConfig(cfg), chainClient, state, logger)
	chainPoller.SetObserver(m)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(hubBuf)
		return nil
	})
	if redisCache != nil {
		g.Go(func() error {
			// Pending writes outlive cancellation; each is bounded by the timeout.
			redisCache.Run(context.WithoutCancel(gctx), cacheBuf, cfg.Market.Interval)
			return nil
		})
	}
	if priceWriter != nil {
		if err := priceWriter.Start(gctx); err != nil {
			return fmt.Errorf("start price writer: %w", err)
		}
	}

	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return serveMetrics(gctx, cfg.Metrics, m, logger)
	})

	if err := marketPoller.Start(gctx); err != nil {
		return fmt.Errorf("start market poller: %w", err)
	}
	if err := chainPoller.Start(gctx); err != nil {
		return fmt.Errorf("start chain poller: %w", err)
	}

	logger.Info("dashboard running",
		"api_url", fmt.Sprintf("http://localhost:%d/api/v1/market", cfg.Server.Port),
		"metrics_url", fmt.Sprintf("http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path),
	)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop producers before closing the router so nothing is lost mid-send.
		marketPoller.Stop(shutdownCtx)
		chainPoller.Stop(shutdownCtx)
		rtr.Close()

		if priceWriter != nil {
			if err := priceWriter.Stop(shutdownCtx); err != nil {
				logger.Error("price writer stop failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("dashboard stopped")
	return nil
}

// subscribe adds a router subscriber and exports its buffer metrics.
func subscribe(rtr *router.Router, m *metrics.Metrics, name string) (*router.RingBuffer[model.MarketUpdate], error) {
	buf, err := rtr.Subscribe(name, 0)
	if err != nil {
		return nil, err
	}
	m.RegisterBuffer(name, buf.Stats)
	return buf, nil
}

// serveMetrics serves the Prometheus endpoint until ctx is cancelled.
func serveMetrics(ctx context.Context, cfg config.MetricsConfig, m *metrics.Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "port", cfg.Port, "path", cfg.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
