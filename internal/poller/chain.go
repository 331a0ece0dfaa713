package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/api"
	"github.com/rickgao/ledger-dashboard/internal/model"
)

// ChainSource reads chain liveness and transfer data from a node.
type ChainSource interface {
	GetLatestBlock(ctx context.Context) (*api.BlockHeader, error)
	GetValidatorCount(ctx context.Context) (int, error)
	GetRecentTransfers(ctx context.Context, limit int) (*api.TxSearchResponse, error)
}

// LedgerSink stores what the chain poller observes. Implemented by ledger.State.
type LedgerSink interface {
	SetStatus(status model.NetworkStatus)
	SetTransfers(transfers []model.Transfer)
}

// ChainConfig holds chain poller configuration.
type ChainConfig struct {
	Interval      time.Duration // Poll interval (default: 10s)
	Timeout       time.Duration // Per-cycle timeout (default: Interval)
	StaleAfter    time.Duration // Block age after which the chain is halted (default: 60s)
	ValidatorSet  int           // Fallback validator count
	TransferLimit int           // Transfers to fetch per cycle
}

// DefaultChainConfig returns sensible defaults.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Interval:      10 * time.Second,
		Timeout:       10 * time.Second,
		StaleAfter:    60 * time.Second,
		ValidatorSet:  3,
		TransferLimit: 10,
	}
}

// ChainPoller periodically refreshes network status and recent transfers.
type ChainPoller struct {
	cfg      ChainConfig
	source   ChainSource
	sink     LedgerSink
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	// Last good block, kept across failed cycles.
	last model.NetworkStatus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewChain creates a new ChainPoller.
func NewChain(cfg ChainConfig, source ChainSource, sink LedgerSink, logger *slog.Logger) *ChainPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &ChainPoller{
		cfg:      cfg,
		source:   source,
		sink:     sink,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
}

// SetObserver attaches a poll outcome observer. Call before Start.
func (p *ChainPoller) SetObserver(o Observer) {
	if o != nil {
		p.observer = o
	}
}

// Start begins the polling loop.
func (p *ChainPoller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("chain poller started",
		"interval", p.cfg.Interval,
		"stale_after", p.cfg.StaleAfter,
		"transfer_limit", p.cfg.TransferLimit,
	)

	return nil
}

// Stop cancels the loop and waits for it.
func (p *ChainPoller) Stop(ctx context.Context) error {
	return stopLoop(ctx, p.cancel, &p.wg, p.logger, "chain poller stopped")
}

func (p *ChainPoller) run() {
	defer p.wg.Done()
	runEvery(p.ctx, p.cfg.Interval, func() {
		p.Poll(p.ctx)
	})
}

// Poll runs one refresh cycle and writes the result to the sink.
// It reports whether the latest block was fetched.
func (p *ChainPoller) Poll(ctx context.Context) bool {
	start := p.now()

	cycleCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	status, fetched := p.pollStatus(cycleCtx)
	if ctx.Err() != nil {
		return false
	}
	p.sink.SetStatus(status)

	transfers, err := p.source.GetRecentTransfers(cycleCtx, p.cfg.TransferLimit)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("transfer fetch failed, keeping previous feed", "error", err)
		}
	} else {
		p.sink.SetTransfers(transfers.ToTransfers())
	}

	p.observer.ObserveChainPoll(fetched, p.now().Sub(start))
	return fetched
}

// pollStatus reads the block and validator set. On a failed block fetch the
// last known height is kept and the network is reported halted.
func (p *ChainPoller) pollStatus(ctx context.Context) (model.NetworkStatus, bool) {
	now := p.now()

	header, err := p.source.GetLatestBlock(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("latest block fetch failed", "error", err)
		}
		status := p.last
		status.Operational = false
		status.ObservedAt = now
		if status.ValidatorCount == 0 {
			status.ValidatorCount = p.cfg.ValidatorSet
			status.ValidatorsFixed = true
		}
		return status, false
	}

	status := model.NetworkStatus{
		ChainID:     header.ChainID,
		BlockHeight: api.ParseHeight(header.Height),
		BlockTime:   api.ParseTimestamp(header.Time),
		ObservedAt:  now,
	}
	status.Operational = !status.BlockTime.IsZero() && now.Sub(status.BlockTime) <= p.cfg.StaleAfter

	count, err := p.source.GetValidatorCount(ctx)
	if err != nil || count == 0 {
		if err != nil && ctx.Err() == nil {
			p.logger.Debug("validator set fetch failed, using configured size", "error", err)
		}
		status.ValidatorCount = p.cfg.ValidatorSet
		status.ValidatorsFixed = true
	} else {
		status.ValidatorCount = count
	}

	if !status.Operational {
		p.logger.Warn("chain appears halted",
			"height", status.BlockHeight,
			"block_time", status.BlockTime,
			"stale_after", p.cfg.StaleAfter,
		)
	}

	p.last = status
	return status, true
}
