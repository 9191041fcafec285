package repository

import (
	"sync"
	"testing"
	"time"

	"salon-sync-server/internal/domain"
)

func TestWatchGate_DeliversUntilStopped(t *testing.T) {
	gate := &watchGate{cancel: func() {}}

	delivered := 0
	gate.deliver(func() { delivered++ })
	gate.deliver(func() { delivered++ })
	if delivered != 2 {
		t.Errorf("expected 2 deliveries before stop, got %d", delivered)
	}

	gate.stop()

	gate.deliver(func() { delivered++ })
	if delivered != 2 {
		t.Errorf("expected no delivery after stop, got %d", delivered)
	}
}

func TestWatchGate_StopCutsOffInFlightDeliveries(t *testing.T) {
	gate := &watchGate{cancel: func() {}}

	var mu sync.Mutex
	delivered := 0

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if i == 0 {
				close(started)
			}
			gate.deliver(func() {
				mu.Lock()
				delivered++
				mu.Unlock()
			})
		}
	}()

	<-started
	gate.stop()

	// stop holds the same lock as deliver, so the count is final here.
	mu.Lock()
	final := delivered
	mu.Unlock()

	<-done
	mu.Lock()
	after := delivered
	mu.Unlock()

	if after != final {
		t.Errorf("callback fired after stop returned: %d -> %d", final, after)
	}
}

func TestWatchGate_StopIsIdempotent(t *testing.T) {
	cancelled := 0
	gate := &watchGate{cancel: func() { cancelled++ }}

	gate.stop()
	gate.stop()

	if cancelled != 2 {
		// cancel is a context.CancelFunc in production: safe to call twice.
		t.Errorf("expected stop to pass through to cancel each time, got %d", cancelled)
	}
}

func TestSortSchedule(t *testing.T) {
	res := func(date, slot string) *domain.Reservation {
		return &domain.Reservation{Date: date, TimeSlot: slot, UpdatedAt: time.Now()}
	}

	schedule := []*domain.Reservation{
		res("2024-12-27", "09:30"),
		res("2024-12-26", "15:00"),
		res("2024-12-26", "09:00"),
		res("2024-12-27", "09:00"),
	}

	sortSchedule(schedule)

	want := []struct{ date, slot string }{
		{"2024-12-26", "09:00"},
		{"2024-12-26", "15:00"},
		{"2024-12-27", "09:00"},
		{"2024-12-27", "09:30"},
	}
	for i, w := range want {
		if schedule[i].Date != w.date || schedule[i].TimeSlot != w.slot {
			t.Errorf("position %d: expected %s %s, got %s %s", i, w.date, w.slot, schedule[i].Date, schedule[i].TimeSlot)
		}
	}
}
