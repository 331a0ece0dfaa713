package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/ledger-dashboard/internal/api"
	"github.com/rickgao/ledger-dashboard/internal/market"
	"github.com/rickgao/ledger-dashboard/internal/model"
)

// PoolSource fetches the market pool.
type PoolSource interface {
	GetPool(ctx context.Context, org, repo string) (*model.Pool, error)
}

// UpdateHandler receives every poll outcome, absent or populated.
type UpdateHandler interface {
	HandleUpdate(update model.MarketUpdate) error
}

// UpdateHandlerFunc is a function adapter for UpdateHandler.
type UpdateHandlerFunc func(model.MarketUpdate) error

func (f UpdateHandlerFunc) HandleUpdate(u model.MarketUpdate) error {
	return f(u)
}

// Handlers fans an update out to several handlers in order. Every handler
// runs; the first error is returned.
func Handlers(hs ...UpdateHandler) UpdateHandler {
	return UpdateHandlerFunc(func(u model.MarketUpdate) error {
		var first error
		for _, h := range hs {
			if err := h.HandleUpdate(u); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// Observer records poll outcomes. Implemented by metrics.Metrics.
type Observer interface {
	ObserveMarketPoll(reason string, d time.Duration)
	ObserveChainPoll(ok bool, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveMarketPoll(string, time.Duration) {}
func (nopObserver) ObserveChainPoll(bool, time.Duration)    {}

// Config holds market poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 5s)
	Timeout  time.Duration // Per-request timeout (default: Interval)
	Org      string        // Chain org path segment
	Repo     string        // Chain repo path segment
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Timeout:  5 * time.Second,
		Org:      "wuledger",
		Repo:     "wuledger",
	}
}

// Poller periodically fetches the pool and publishes the derived record.
type Poller struct {
	cfg      Config
	source   PoolSource
	handler  UpdateHandler
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source PoolSource, handler UpdateHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &Poller{
		cfg:      cfg,
		source:   source,
		handler:  handler,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
}

// SetObserver attaches a poll outcome observer. Call before Start.
func (p *Poller) SetObserver(o Observer) {
	if o != nil {
		p.observer = o
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("market poller started",
		"interval", p.cfg.Interval,
		"timeout", p.cfg.Timeout,
		"path", api.PoolPath(p.cfg.Org, p.cfg.Repo),
	)

	return nil
}

// Stop cancels the loop, including any in-flight request, and waits for it.
func (p *Poller) Stop(ctx context.Context) error {
	return stopLoop(ctx, p.cancel, &p.wg, p.logger, "market poller stopped")
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()
	runEvery(p.ctx, p.cfg.Interval, p.pollOnce)
}

// pollOnce performs one poll and hands the outcome to the handler.
func (p *Poller) pollOnce() {
	update := p.Poll(p.ctx)

	// Stop() during a request is teardown, not an outcome.
	if p.ctx.Err() != nil {
		return
	}

	if p.handler != nil {
		if err := p.handler.HandleUpdate(update); err != nil {
			p.logger.Warn("market update handler failed", "error", err)
		}
	}
}

// Poll fetches the pool once and returns the resulting update. It never
// fails: every error becomes an absent update carrying a reason.
func (p *Poller) Poll(ctx context.Context) model.MarketUpdate {
	start := p.now()

	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	update := model.MarketUpdate{ID: uuid.New()}

	pool, err := p.source.GetPool(reqCtx, p.cfg.Org, p.cfg.Repo)
	if err != nil {
		update.Reason = classifyFetchError(err)
		p.logAbsent(update.Reason, err)
	} else {
		update.Pool = pool
		point, derr := market.Derive(pool)
		if derr != nil {
			update.Reason = market.ReasonFor(derr)
			p.logAbsent(update.Reason, derr)
		} else {
			update.Point = &point
		}
	}

	update.ObservedAt = p.now()
	p.observer.ObserveMarketPoll(update.Reason, update.ObservedAt.Sub(start))

	if update.Point != nil {
		p.logger.Debug("market poll complete", "price", update.Point.Price)
	}
	return update
}

// logAbsent logs expected absences at Debug and failures at Warn.
func (p *Poller) logAbsent(reason string, err error) {
	switch reason {
	case model.ReasonNotFound, model.ReasonNoPool, model.ReasonZeroReserve:
		p.logger.Debug("no active market", "reason", reason, "detail", err)
	default:
		p.logger.Warn("market poll failed", "reason", reason, "error", err)
	}
}

// classifyFetchError maps a pool fetch error to its absent reason.
func classifyFetchError(err error) string {
	var apiErr *api.APIError
	var decodeErr *api.DecodeError
	switch {
	case api.IsNotFound(err):
		return model.ReasonNotFound
	case errors.As(err, &apiErr):
		return model.ReasonHTTPError
	case errors.As(err, &decodeErr):
		return model.ReasonMalformed
	default:
		return model.ReasonTransport
	}
}

// runEvery calls fn immediately, then on every tick until ctx is done.
// fn runs on the loop goroutine, so calls never overlap.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Poll immediately on start.
	fn()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// stopLoop cancels a loop and waits for it, bounded by ctx.
func stopLoop(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup, logger *slog.Logger, msg string) error {
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(msg)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
