// Package heartbeatmon tracks connection liveness and detects staleness.
// Grounded on the teacher's internal/heartbeat.Service: a mutex-guarded
// running flag plus a cancellable ticker loop, repurposed from running
// periodic agent turns to checking time-since-last-PING.
package heartbeatmon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/timersvc"
)

const (
	StalenessThreshold = 15 * time.Second
	CheckCadence       = 1 * time.Second
)

// Clock abstracts wall-clock time so tests can control staleness without
// real sleeps.
type Clock func() time.Time

// Monitor arms on entering Connected and disarms on leaving it, checking
// every cadence whether the gap since the last recorded liveness exceeds
// threshold.
type Monitor struct {
	mu        sync.Mutex
	timers    *timersvc.Service
	clock     Clock
	threshold time.Duration
	cadence   time.Duration
	running   bool
	last      time.Time
	handle    *timersvc.Handle

	onStale func()
}

// New returns a Monitor using the production staleness threshold and check
// cadence from spec. onStale is invoked (off the monitor's internal
// goroutine — callers must treat it like any other timer callback and post
// it to their own serialized loop) whenever a check finds the connection
// stale.
func New(svc *timersvc.Service, clock Clock, onStale func()) *Monitor {
	return NewWithConfig(svc, clock, onStale, StalenessThreshold, CheckCadence)
}

// NewWithConfig returns a Monitor with an overridden threshold/cadence, so
// tests can shrink both without touching the production constants.
func NewWithConfig(svc *timersvc.Service, clock Clock, onStale func(), threshold, cadence time.Duration) *Monitor {
	return &Monitor{timers: svc, clock: clock, onStale: onStale, threshold: threshold, cadence: cadence}
}

// Start arms the monitor, setting the initial liveness timestamp to now.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.last = m.clock()
	m.handle = m.timers.ScheduleInterval(m.cadence, m.check)
	slog.Default().With("component", "heartbeatmon").Debug("heartbeat monitor armed")
}

// Stop disarms the monitor and cancels its check timer.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.handle.Cancel()
	m.handle = nil
	slog.Default().With("component", "heartbeatmon").Debug("heartbeat monitor disarmed")
}

// RecordLiveness resets the last-liveness timestamp to now. Called on every
// PING receipt.
func (m *Monitor) RecordLiveness() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = m.clock()
}

// LastLiveness returns the last recorded liveness timestamp.
func (m *Monitor) LastLiveness() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) check() {
	m.mu.Lock()
	running := m.running
	gap := m.clock().Sub(m.last)
	stale := running && gap > m.threshold
	if stale {
		// Disarm before calling out so a slow-to-react caller never sees
		// this fire twice for the same staleness episode.
		m.running = false
		m.handle.Cancel()
		m.handle = nil
	}
	m.mu.Unlock()

	if stale {
		m.onStale()
	}
}
