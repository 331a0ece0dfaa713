package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPricePointDisplay(t *testing.T) {
	p := PricePoint{Price: "2.5000", Volume: VolumeNotAvailable, Time: TimeLive}

	if got := p.Display("QUOTE"); got != "2.5000 QUOTE" {
		t.Errorf("Display(QUOTE) = %q, want %q", got, "2.5000 QUOTE")
	}
	if got := p.Display(""); got != "2.5000" {
		t.Errorf("Display(\"\") = %q, want %q", got, "2.5000")
	}
}

func TestMarketUpdateAbsent(t *testing.T) {
	t.Run("populated", func(t *testing.T) {
		u := MarketUpdate{
			ID:         uuid.New(),
			ObservedAt: time.Now(),
			Point:      &PricePoint{Price: "1.0000", Volume: VolumeNotAvailable, Time: TimeLive},
			Pool:       &Pool{ReserveOgc: "10", ReserveQuote: "10"},
		}
		if u.Absent() {
			t.Error("Absent() = true, want false")
		}
	})

	t.Run("absent", func(t *testing.T) {
		u := MarketUpdate{ID: uuid.New(), Reason: ReasonNotFound}
		if !u.Absent() {
			t.Error("Absent() = false, want true")
		}
	})
}

func TestNetworkStatusLabel(t *testing.T) {
	if got := (NetworkStatus{Operational: true}).StatusLabel(); got != "Operational" {
		t.Errorf("StatusLabel() = %q, want Operational", got)
	}
	if got := (NetworkStatus{}).StatusLabel(); got != "Halted" {
		t.Errorf("StatusLabel() = %q, want Halted", got)
	}
}
