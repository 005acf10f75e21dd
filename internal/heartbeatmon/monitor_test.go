package heartbeatmon

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/timersvc"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	testThreshold = 30 * time.Millisecond
	testCadence   = 5 * time.Millisecond
)

func newTestMonitor(fc *fakeClock, onStale func()) *Monitor {
	return NewWithConfig(timersvc.New(), fc.Now, onStale, testThreshold, testCadence)
}

func TestStartSetsInitialLiveness(t *testing.T) {
	fc := &fakeClock{now: time.Unix(1000, 0)}
	m := newTestMonitor(fc, func() {})
	m.Start()
	defer m.Stop()

	if !m.LastLiveness().Equal(fc.Now()) {
		t.Fatalf("expected initial liveness to equal start time")
	}
}

func TestRecordLivenessResetsGap(t *testing.T) {
	fc := &fakeClock{now: time.Unix(1000, 0)}
	m := newTestMonitor(fc, func() {})
	m.Start()
	defer m.Stop()

	fc.Advance(10 * time.Second)
	m.RecordLiveness()
	if !m.LastLiveness().Equal(fc.Now()) {
		t.Fatalf("expected liveness to be reset to latest now")
	}
}

func TestStaleCallbackFiresOnceAfterThreshold(t *testing.T) {
	fc := &fakeClock{now: time.Unix(1000, 0)}
	var fired atomic.Int32
	m := newTestMonitor(fc, func() { fired.Add(1) })
	m.Start()
	defer m.Stop()

	fc.Advance(testThreshold + time.Millisecond)
	time.Sleep(5 * testCadence)

	if fired.Load() != 1 {
		t.Fatalf("expected exactly one stale callback, got %d", fired.Load())
	}
}

func TestNoStaleCallbackBeforeThreshold(t *testing.T) {
	fc := &fakeClock{now: time.Unix(1000, 0)}
	var fired atomic.Int32
	m := newTestMonitor(fc, func() { fired.Add(1) })
	m.Start()
	defer m.Stop()

	fc.Advance(testThreshold - time.Millisecond)
	time.Sleep(5 * testCadence)

	if fired.Load() != 0 {
		t.Fatalf("expected no stale callback below threshold, got %d", fired.Load())
	}
}

func TestStopDisarmsMonitor(t *testing.T) {
	fc := &fakeClock{now: time.Unix(1000, 0)}
	var fired atomic.Int32
	m := newTestMonitor(fc, func() { fired.Add(1) })
	m.Start()
	m.Stop()

	fc.Advance(testThreshold + time.Millisecond)
	time.Sleep(5 * testCadence)

	if fired.Load() != 0 {
		t.Fatalf("expected no callback after Stop, got %d", fired.Load())
	}
}
