package router

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/ledger-dashboard/internal/model"
)

func populated(price string) model.MarketUpdate {
	return model.MarketUpdate{
		ID:         uuid.New(),
		ObservedAt: time.Now(),
		Point:      &model.PricePoint{Price: price, Volume: model.VolumeNotAvailable, Time: model.TimeLive},
	}
}

func TestRouter_FanOut(t *testing.T) {
	r := NewRouter(DefaultRouterConfig(), nil)

	ws, err := r.Subscribe("ws", 0)
	if err != nil {
		t.Fatalf("Subscribe(ws) failed: %v", err)
	}
	writer, err := r.Subscribe("writer", 10)
	if err != nil {
		t.Fatalf("Subscribe(writer) failed: %v", err)
	}

	if ws.Cap() != 256 {
		t.Errorf("ws Cap() = %d, want default 256", ws.Cap())
	}

	u := populated("2.5000")
	if err := r.HandleUpdate(u); err != nil {
		t.Fatalf("HandleUpdate failed: %v", err)
	}

	for name, buf := range map[string]*RingBuffer[model.MarketUpdate]{"ws": ws, "writer": writer} {
		got, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("%s: no update delivered", name)
		}
		if got.ID != u.ID {
			t.Errorf("%s: ID = %v, want %v", name, got.ID, u.ID)
		}
	}

	stats := r.Stats()
	if stats.UpdatesReceived != 1 || stats.UpdatesRouted != 2 {
		t.Errorf("stats = %+v, want 1 received, 2 routed", stats)
	}
}

func TestRouter_SlowSubscriberDropsOldest(t *testing.T) {
	r := NewRouter(RouterConfig{BufferSize: 2}, nil)

	slow, _ := r.Subscribe("slow", 0)
	fast, _ := r.Subscribe("fast", 100)

	for _, p := range []string{"1.0000", "2.0000", "3.0000"} {
		r.HandleUpdate(populated(p))
	}

	if got := fast.Len(); got != 3 {
		t.Errorf("fast Len() = %d, want 3", got)
	}

	items := slow.DrainTo(0)
	if len(items) != 2 {
		t.Fatalf("slow drained %d, want 2", len(items))
	}
	if items[0].Point.Price != "2.0000" || items[1].Point.Price != "3.0000" {
		t.Errorf("slow kept %s,%s; want 2.0000,3.0000", items[0].Point.Price, items[1].Point.Price)
	}

	if got := r.Stats().Subscribers["slow"].Dropped; got != 1 {
		t.Errorf("slow Dropped = %d, want 1", got)
	}
}

func TestRouter_DuplicateSubscribe(t *testing.T) {
	r := NewRouter(DefaultRouterConfig(), nil)

	if _, err := r.Subscribe("ws", 0); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := r.Subscribe("ws", 0); err == nil {
		t.Error("expected error for duplicate subscriber")
	}
}

func TestRouter_Close(t *testing.T) {
	r := NewRouter(DefaultRouterConfig(), nil)
	buf, _ := r.Subscribe("ws", 0)

	r.HandleUpdate(populated("1.0000"))
	r.Close()
	r.Close() // idempotent

	// Updates after Close are ignored.
	if err := r.HandleUpdate(populated("2.0000")); err != nil {
		t.Errorf("HandleUpdate after Close = %v, want nil", err)
	}

	if _, ok := buf.Receive(); !ok {
		t.Error("pending update lost on Close")
	}
	if _, ok := buf.Receive(); ok {
		t.Error("Receive after drain should report closed")
	}

	if _, err := r.Subscribe("late", 0); err == nil {
		t.Error("expected error subscribing to a closed router")
	}
}
