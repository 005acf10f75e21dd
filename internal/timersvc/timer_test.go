package timersvc

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	s := New()
	var fired atomic.Bool
	s.Schedule(10*time.Millisecond, func() { fired.Store(true) })

	time.Sleep(50 * time.Millisecond)
	if !fired.Load() {
		t.Fatal("expected callback to fire")
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := New()
	var fired atomic.Bool
	h := s.Schedule(20*time.Millisecond, func() { fired.Store(true) })
	h.Cancel()

	time.Sleep(50 * time.Millisecond)
	if fired.Load() {
		t.Fatal("expected cancelled callback not to fire")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New()
	h := s.Schedule(20*time.Millisecond, func() {})
	h.Cancel()
	h.Cancel() // must not panic
}

func TestCancelNilHandle(t *testing.T) {
	var h *Handle
	h.Cancel() // must not panic
}

func TestScheduleIntervalFiresRepeatedly(t *testing.T) {
	s := New()
	var count atomic.Int32
	h := s.ScheduleInterval(10*time.Millisecond, func() { count.Add(1) })
	defer h.Cancel()

	time.Sleep(55 * time.Millisecond)
	if count.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", count.Load())
	}
}

func TestScheduleIntervalStopsAfterCancel(t *testing.T) {
	s := New()
	var count atomic.Int32
	h := s.ScheduleInterval(10*time.Millisecond, func() { count.Add(1) })

	time.Sleep(25 * time.Millisecond)
	h.Cancel()
	seen := count.Load()

	time.Sleep(40 * time.Millisecond)
	if count.Load() != seen {
		t.Fatalf("expected no more ticks after cancel: had %d, now %d", seen, count.Load())
	}
}
