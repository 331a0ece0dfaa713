package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Market Types
// -----------------------------------------------------------------------------

// Display values used by every populated PricePoint.
const (
	VolumeNotAvailable = "N/A"  // Volume requires block indexing
	TimeLive           = "Live" // Records are always the latest observation
)

// Absent reasons recorded on a MarketUpdate. They are diagnostic only; every
// one of them renders as "no active market".
const (
	ReasonNotFound    = "not_found"    // Pool endpoint returned 404
	ReasonHTTPError   = "http_error"   // Any other non-2xx status
	ReasonTransport   = "transport"    // Network error, timeout, cancelled request
	ReasonMalformed   = "malformed"    // Body or reserve values could not be parsed
	ReasonNoPool      = "no_pool"      // Body had no pool or empty reserve fields
	ReasonZeroReserve = "zero_reserve" // Base reserve is zero
)

// Pool is the chain's AMM pool singleton. Read-only, fetched by value.
type Pool struct {
	ReserveOgc   string `json:"reserveOgc"`   // Base asset reserve (integer string)
	ReserveQuote string `json:"reserveQuote"` // Quote asset reserve (integer string)
}

// PricePoint is a display-ready market record. It is either absent (nil) or
// has every field set.
type PricePoint struct {
	Price  string `json:"price"`  // quote/base with 4 decimals, e.g. "2.5000"
	Volume string `json:"volume"` // Always VolumeNotAvailable
	Time   string `json:"time"`   // Always TimeLive
}

// Display renders the price with its quote unit, e.g. "2.5000 QUOTE".
func (p PricePoint) Display(unit string) string {
	if unit == "" {
		return p.Price
	}
	return p.Price + " " + unit
}

// MarketUpdate is the outcome of a single market poll.
type MarketUpdate struct {
	ID         uuid.UUID   // Observation ID
	ObservedAt time.Time   // When the poll completed
	Point      *PricePoint // nil = no active market
	Pool       *Pool       // Raw reserves, nil if the pool was not fetched
	Reason     string      // Empty when populated, otherwise a Reason* constant
}

// Absent reports whether the update represents "no active market".
func (u MarketUpdate) Absent() bool {
	return u.Point == nil
}

// PriceSample is a persisted market observation.
type PriceSample struct {
	ID           uuid.UUID `json:"id"`
	ObservedAt   time.Time `json:"observed_at"`
	ReserveOgc   string    `json:"reserve_ogc,omitempty"`
	ReserveQuote string    `json:"reserve_quote,omitempty"`
	Price        string    `json:"price,omitempty"` // Empty when absent
	Status       string    `json:"status"`          // "populated" or an absent reason
}

// StatusPopulated is the PriceSample status of a populated observation.
const StatusPopulated = "populated"

// -----------------------------------------------------------------------------
// Ledger Types
// -----------------------------------------------------------------------------

// NetworkStatus summarises chain liveness.
type NetworkStatus struct {
	ChainID         string
	BlockHeight     int64
	BlockTime       time.Time
	ValidatorCount  int
	ValidatorsFixed bool // Count came from configuration, not the node
	Operational     bool
	ObservedAt      time.Time
}

// StatusLabel returns "Operational" or "Halted".
func (s NetworkStatus) StatusLabel() string {
	if s.Operational {
		return "Operational"
	}
	return "Halted"
}

// Transfer is a single bank send observed on chain.
type Transfer struct {
	TxHash string
	Height int64
	Time   time.Time
	From   string
	To     string
	Amount string // Integer string in base denom units
	Denom  string // e.g. "uogc"
}
