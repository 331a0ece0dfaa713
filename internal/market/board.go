package market

import (
	"sync"
	"time"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// Board holds the most recent market update.
type Board struct {
	mu     sync.RWMutex
	latest model.MarketUpdate
	polled bool
}

// NewBoard creates an empty Board. Until the first update it reports absent.
func NewBoard() *Board {
	return &Board{}
}

// HandleUpdate replaces the current update.
func (b *Board) HandleUpdate(u model.MarketUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = u
	b.polled = true
	return nil
}

// Current returns a copy of the displayed record, or false when absent.
func (b *Board) Current() (model.PricePoint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest.Point == nil {
		return model.PricePoint{}, false
	}
	return *b.latest.Point, true
}

// Latest returns the last update and whether any poll has completed.
func (b *Board) Latest() (model.MarketUpdate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.polled
}

// LastObserved returns when the last poll completed (zero before the first).
func (b *Board) LastObserved() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest.ObservedAt
}
