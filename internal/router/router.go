package router

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Router fans every market update out to named subscriber buffers.
// HandleUpdate never blocks: a full subscriber loses its oldest update.
type Router struct {
	cfg    RouterConfig
	logger *slog.Logger

	mu       sync.RWMutex
	subs     map[string]*RingBuffer[model.MarketUpdate]
	order    []string
	closed   bool
	received int64
	routed   int64
}

// NewRouter creates a new update Router.
func NewRouter(cfg RouterConfig, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultRouterConfig().BufferSize
	}
	return &Router{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]*RingBuffer[model.MarketUpdate]),
	}
}

// Subscribe registers a named buffer. capacity <= 0 uses the configured size.
func (r *Router) Subscribe(name string, capacity int) (*RingBuffer[model.MarketUpdate], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("subscribe %s: router closed", name)
	}
	if _, ok := r.subs[name]; ok {
		return nil, fmt.Errorf("subscribe %s: already subscribed", name)
	}
	if capacity <= 0 {
		capacity = r.cfg.BufferSize
	}

	buf := NewRingBuffer[model.MarketUpdate](capacity)
	r.subs[name] = buf
	r.order = append(r.order, name)

	r.logger.Debug("router subscriber added", "name", name, "capacity", capacity)
	return buf, nil
}

// HandleUpdate delivers u to every subscriber.
func (r *Router) HandleUpdate(u model.MarketUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.received++
	for _, name := range r.order {
		buf := r.subs[name]
		if buf.Len() == buf.Cap() {
			r.logger.Debug("subscriber full, dropping oldest update", "subscriber", name)
		}
		if buf.Send(u) {
			r.routed++
		}
	}
	return nil
}

// Close closes every subscriber buffer. Consumers drain what remains.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, buf := range r.subs {
		buf.Close()
	}
	r.logger.Info("update router closed", "received", r.received, "routed", r.routed)
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make(map[string]BufferStats, len(r.subs))
	for name, buf := range r.subs {
		subs[name] = buf.Stats()
	}
	return RouterStats{
		UpdatesReceived: r.received,
		UpdatesRouted:   r.routed,
		Subscribers:     subs,
	}
}
