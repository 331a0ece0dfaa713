package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

const insertPriceSQL = `
	INSERT INTO market_prices (id, observed_at, reserve_ogc, reserve_quote, price, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// Input yields updates without blocking. Implemented by router.RingBuffer.
type Input interface {
	TryReceive() (model.MarketUpdate, bool)
	DrainTo(max int) []model.MarketUpdate
}

// BatchSender sends a pgx batch. Satisfied by *pgxpool.Pool.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// FlushObserver records flush outcomes. Implemented by metrics.Metrics.
type FlushObserver interface {
	ObserveFlush(inserted, conflicts int, err error, d time.Duration)
}

type nopFlushObserver struct{}

func (nopFlushObserver) ObserveFlush(int, int, error, time.Duration) {}

// PriceWriter consumes market updates and writes them to market_prices.
type PriceWriter struct {
	cfg      WriterConfig
	logger   *slog.Logger
	observer FlushObserver

	// Input from the update router
	input Input

	// Database
	db BatchSender

	// Batching
	batch       []priceRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewPriceWriter creates a new PriceWriter.
func NewPriceWriter(
	cfg WriterConfig,
	input Input,
	db BatchSender,
	logger *slog.Logger,
) *PriceWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	return &PriceWriter{
		cfg:      cfg,
		input:    input,
		db:       db,
		logger:   logger,
		observer: nopFlushObserver{},
		batch:    make([]priceRow, 0, cfg.BatchSize),
	}
}

// SetObserver attaches a flush observer. Call before Start.
func (w *PriceWriter) SetObserver(o FlushObserver) {
	if o != nil {
		w.observer = o
	}
}

// Start begins consuming updates and writing to the database.
func (w *PriceWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("price writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts down the writer, draining queued updates into a final flush
// bounded by ctx.
func (w *PriceWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping price writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("price writer stop timed out")
		return ctx.Err()
	}

	for _, u := range w.input.DrainTo(0) {
		w.append(u)
	}

	// Final flush
	w.flush(ctx)

	w.logger.Info("price writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *PriceWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input buffer and accumulates batches.
func (w *PriceWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			u, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleUpdate(u)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *PriceWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleUpdate adds an update to the batch, flushing when full.
func (w *PriceWriter) handleUpdate(u model.MarketUpdate) {
	if w.append(u) {
		w.flush(w.ctx)
	}
}

// append transforms u into the batch and reports whether the batch is full.
func (w *PriceWriter) append(u model.MarketUpdate) bool {
	row := transform(u)

	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	w.batch = append(w.batch, row)
	return len(w.batch) >= w.cfg.BatchSize
}

// transform converts a MarketUpdate to a priceRow.
func transform(u model.MarketUpdate) priceRow {
	row := priceRow{
		ID:         u.ID,
		ObservedAt: u.ObservedAt.UTC(),
		Status:     model.StatusPopulated,
	}
	if u.Absent() {
		row.Status = u.Reason
	} else {
		price := u.Point.Price
		row.Price = &price
	}
	if u.Pool != nil {
		row.ReserveOgc = numericOrNil(u.Pool.ReserveOgc)
		row.ReserveQuote = numericOrNil(u.Pool.ReserveQuote)
	}
	return row
}

// numericOrNil returns s if it parses as a decimal, so a malformed reserve
// never fails the whole batch.
func numericOrNil(s string) *string {
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return nil
	}
	return &s
}

// flush writes the current batch to the database.
func (w *PriceWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]priceRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.observer.ObserveFlush(0, 0, err, time.Since(start))
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.observer.ObserveFlush(len(batch)-conflicts, conflicts, nil, time.Since(start))

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed market prices",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *PriceWriter) batchInsert(ctx context.Context, rows []priceRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertPriceSQL, r.ID, r.ObservedAt, r.ReserveOgc, r.ReserveQuote, r.Price, r.Status)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
