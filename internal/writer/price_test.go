package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/ledger-dashboard/internal/model"
	"github.com/rickgao/ledger-dashboard/internal/router"
)

// fakeDB records batches. IDs listed in existing report a conflict.
type fakeDB struct {
	mu       sync.Mutex
	batches  []*pgx.Batch
	existing map[uuid.UUID]bool
	err      error
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)

	res := &fakeResults{err: f.err}
	for _, q := range b.QueuedQueries {
		id := q.Arguments[0].(uuid.UUID)
		res.affected = append(res.affected, !f.existing[id])
	}
	return res
}

func (f *fakeDB) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += b.Len()
	}
	return n
}

type fakeResults struct {
	affected []bool
	err      error
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	ok := r.affected[0]
	r.affected = r.affected[1:]
	if ok {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 0"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }

func populatedUpdate() model.MarketUpdate {
	return model.MarketUpdate{
		ID:         uuid.New(),
		ObservedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)),
		Point:      &model.PricePoint{Price: "2.5000", Volume: model.VolumeNotAvailable, Time: model.TimeLive},
		Pool:       &model.Pool{ReserveOgc: "100", ReserveQuote: "250"},
	}
}

func TestTransform(t *testing.T) {
	t.Run("populated", func(t *testing.T) {
		u := populatedUpdate()
		row := transform(u)

		if row.ID != u.ID {
			t.Errorf("ID = %v, want %v", row.ID, u.ID)
		}
		if row.ObservedAt.Location() != time.UTC {
			t.Errorf("ObservedAt location = %v, want UTC", row.ObservedAt.Location())
		}
		if row.Status != model.StatusPopulated {
			t.Errorf("Status = %q, want %q", row.Status, model.StatusPopulated)
		}
		if row.Price == nil || *row.Price != "2.5000" {
			t.Errorf("Price = %v, want 2.5000", row.Price)
		}
		if row.ReserveOgc == nil || *row.ReserveOgc != "100" {
			t.Errorf("ReserveOgc = %v, want 100", row.ReserveOgc)
		}
		if row.ReserveQuote == nil || *row.ReserveQuote != "250" {
			t.Errorf("ReserveQuote = %v, want 250", row.ReserveQuote)
		}
	})

	t.Run("absent without pool", func(t *testing.T) {
		row := transform(model.MarketUpdate{ID: uuid.New(), Reason: model.ReasonNotFound})

		if row.Status != model.ReasonNotFound {
			t.Errorf("Status = %q, want %q", row.Status, model.ReasonNotFound)
		}
		if row.Price != nil || row.ReserveOgc != nil || row.ReserveQuote != nil {
			t.Errorf("row = %+v, want NULL price and reserves", row)
		}
	})

	t.Run("zero reserve keeps reserves", func(t *testing.T) {
		row := transform(model.MarketUpdate{
			ID:     uuid.New(),
			Pool:   &model.Pool{ReserveOgc: "0", ReserveQuote: "250"},
			Reason: model.ReasonZeroReserve,
		})

		if row.Price != nil {
			t.Errorf("Price = %v, want nil", *row.Price)
		}
		if row.ReserveOgc == nil || *row.ReserveOgc != "0" {
			t.Errorf("ReserveOgc = %v, want 0", row.ReserveOgc)
		}
	})

	t.Run("malformed reserve is dropped", func(t *testing.T) {
		row := transform(model.MarketUpdate{
			ID:     uuid.New(),
			Pool:   &model.Pool{ReserveOgc: "abc", ReserveQuote: ""},
			Reason: model.ReasonMalformed,
		})

		if row.ReserveOgc != nil || row.ReserveQuote != nil {
			t.Errorf("reserves = %v/%v, want nil", row.ReserveOgc, row.ReserveQuote)
		}
	})
}

func TestPriceWriter_Flush(t *testing.T) {
	dup := populatedUpdate()
	db := &fakeDB{existing: map[uuid.UUID]bool{dup.ID: true}}

	w := NewPriceWriter(WriterConfig{BatchSize: 10, FlushInterval: time.Hour}, router.NewRingBuffer[model.MarketUpdate](10), db, nil)
	w.ctx = context.Background()

	w.append(populatedUpdate())
	w.append(dup)
	w.append(model.MarketUpdate{ID: uuid.New(), Reason: model.ReasonTransport})
	w.flush(context.Background())

	stats := w.Stats()
	if stats.Inserts != 2 {
		t.Errorf("Inserts = %d, want 2", stats.Inserts)
	}
	if stats.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", stats.Conflicts)
	}
	if stats.Flushes != 1 {
		t.Errorf("Flushes = %d, want 1", stats.Flushes)
	}

	if got := db.rows(); got != 3 {
		t.Errorf("rows sent = %d, want 3", got)
	}
	q := db.batches[0].QueuedQueries[0]
	if q.SQL != insertPriceSQL {
		t.Errorf("SQL = %q, want insertPriceSQL", q.SQL)
	}

	// Empty flush is a no-op.
	w.flush(context.Background())
	if got := len(db.batches); got != 1 {
		t.Errorf("batches = %d, want 1", got)
	}
}

func TestPriceWriter_FlushError(t *testing.T) {
	db := &fakeDB{err: errors.New("connection reset")}
	w := NewPriceWriter(DefaultWriterConfig(), router.NewRingBuffer[model.MarketUpdate](10), db, nil)

	w.append(populatedUpdate())
	w.flush(context.Background())

	stats := w.Stats()
	if stats.Errors != 1 || stats.Inserts != 0 {
		t.Errorf("stats = %+v, want 1 error and no inserts", stats)
	}
}

func TestPriceWriter_BatchSizeTriggersFlush(t *testing.T) {
	db := &fakeDB{}
	w := NewPriceWriter(WriterConfig{BatchSize: 2, FlushInterval: time.Hour}, router.NewRingBuffer[model.MarketUpdate](10), db, nil)
	w.ctx = context.Background()

	w.handleUpdate(populatedUpdate())
	if got := db.rows(); got != 0 {
		t.Errorf("rows after 1 update = %d, want 0", got)
	}
	w.handleUpdate(populatedUpdate())
	if got := db.rows(); got != 2 {
		t.Errorf("rows after 2 updates = %d, want 2", got)
	}
}

func TestPriceWriter_Lifecycle(t *testing.T) {
	db := &fakeDB{}
	input := router.NewRingBuffer[model.MarketUpdate](10)

	w := NewPriceWriter(WriterConfig{BatchSize: 100, FlushInterval: 20 * time.Millisecond}, input, db, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	input.Send(populatedUpdate())
	input.Send(populatedUpdate())

	// Flush interval writes without reaching the batch size.
	deadline := time.Now().Add(2 * time.Second)
	for db.rows() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("rows = %d, want 2 after flush interval", db.rows())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Queued at shutdown is still written.
	input.Send(populatedUpdate())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	if got := db.rows(); got != 3 {
		t.Errorf("rows = %d, want 3 after Stop", got)
	}
}

func TestDefaultWriterConfig(t *testing.T) {
	cfg := DefaultWriterConfig()

	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.BatchSize)
	}
	if cfg.FlushInterval != 5*time.Second {
		t.Errorf("FlushInterval = %v, want 5s", cfg.FlushInterval)
	}
}

func TestPriceWriter_StopDrainsQueued(t *testing.T) {
	db := &fakeDB{}
	input := router.NewRingBuffer[model.MarketUpdate](10)
	w := NewPriceWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, input, db, nil)

	// Never started: everything queued is written by Stop alone.
	for i := 0; i < 3; i++ {
		input.Send(populatedUpdate())
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := db.rows(); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
	if got := input.Len(); got != 0 {
		t.Errorf("input.Len() = %d, want 0", got)
	}
}
