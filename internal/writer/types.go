package writer

import (
	"time"

	"github.com/google/uuid"
)

// WriterConfig holds configuration for writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}

// priceRow represents a row to be inserted into the market_prices table.
type priceRow struct {
	ID           uuid.UUID
	ObservedAt   time.Time
	ReserveOgc   *string // NULL when not fetched or not numeric
	ReserveQuote *string
	Price        *string // NULL when absent
	Status       string
}

// WriterMetrics tracks writer statistics.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
