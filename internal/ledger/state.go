package ledger

import (
	"sync"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

// State is the latest chain view written by the chain poller.
type State struct {
	mu        sync.RWMutex
	status    model.NetworkStatus
	hasStatus bool
	transfers []model.Transfer
}

// NewState creates an empty State.
func NewState() *State {
	return &State{}
}

// SetStatus replaces the network status.
func (s *State) SetStatus(status model.NetworkStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.hasStatus = true
}

// Status returns the network status and whether one has been observed.
func (s *State) Status() (model.NetworkStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.hasStatus
}

// SetTransfers replaces the transfer feed.
func (s *State) SetTransfers(transfers []model.Transfer) {
	cp := make([]model.Transfer, len(transfers))
	copy(cp, transfers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = cp
}

// Transfers returns a copy of the transfer feed, newest first.
func (s *State) Transfers() []model.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}
