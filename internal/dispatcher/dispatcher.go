// Package dispatcher implements the Action Dispatcher: correlation-id
// minting, per-action timeout, and duplicate-result suppression. Grounded
// on the teacher's internal/bus.DedupeCache shape (generalized to a
// count-bounded FIFO by internal/dedupe) plus the teacher's
// mutex-guarded-map idiom for pending-entry bookkeeping, tightened here to
// a single-writer struct since the engine funnels every call onto one
// serialized command loop.
package dispatcher

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/dedupe"
	"github.com/n1shantvarma/tapvolt-app/internal/timersvc"
	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

const (
	PerActionTimeout = 8 * time.Second
	CompletedWindow  = 500
)

const timeoutMessage = "Action timed out after 8 seconds."

// Result is the normalized outcome of one dispatched action.
type Result struct {
	ID            string
	Status        string
	ExecutionTime float64
	Error         string
}

// ResolveOutcome classifies an inbound ACTION_RESULT.
type ResolveOutcome int

const (
	ResolveDelivered ResolveOutcome = iota
	ResolveDuplicate
	ResolveUnknown
)

// Dispatcher is not safe for concurrent use; every method must be called
// from the engine's serialized command loop. The only cross-goroutine
// contact point is the onTimeout callback given to Arm, which the caller
// must post back onto that loop rather than act on directly.
type Dispatcher struct {
	timers  *timersvc.Service
	nowFn   func() time.Time
	timeout time.Duration
	nonce   atomic.Int64
	pending map[string]*timersvc.Handle
	done    *dedupe.Window
}

// New returns a Dispatcher using svc for per-action timers and nowFn for
// minting correlation ids (pass time.Now in production; tests can inject a
// fixed or incrementing clock). Uses the production 8s timeout and 500-entry
// completed window.
func New(svc *timersvc.Service, nowFn func() time.Time) *Dispatcher {
	return NewWithConfig(svc, nowFn, PerActionTimeout, CompletedWindow)
}

// NewWithConfig is New with an overridable per-action timeout and completed
// window size, so the engine façade's Engine Options can shrink them for
// tests the same way internal/heartbeatmon.NewWithConfig does.
func NewWithConfig(svc *timersvc.Service, nowFn func() time.Time, timeout time.Duration, completedWindow int) *Dispatcher {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Dispatcher{
		timers:  svc,
		nowFn:   nowFn,
		timeout: timeout,
		pending: make(map[string]*timersvc.Handle),
		done:    dedupe.New(completedWindow),
	}
}

// NextID mints a correlation id of the form <epochMillis>-<monotonic-nonce>.
func (d *Dispatcher) NextID() string {
	return fmt.Sprintf("%d-%d", d.nowFn().UnixMilli(), d.nonce.Add(1))
}

// Arm records id as pending and starts its 8s timeout timer. onFire is
// called from the timer service's own goroutine when the timer expires;
// callers must post it back onto their serialized loop and only then call
// HandleTimeout, exactly as they do for transport callbacks.
func (d *Dispatcher) Arm(id string, onFire func(id string)) {
	d.pending[id] = d.timers.Schedule(d.timeout, func() { onFire(id) })
}

// HandleTimeout finalizes a fired timeout for id: clears the pending entry
// and records it as completed. ok is false if id was already resolved or
// cleared before the timer fired, in which case the fire is a no-op.
func (d *Dispatcher) HandleTimeout(id string) (Result, bool) {
	if _, ok := d.pending[id]; !ok {
		return Result{}, false
	}
	delete(d.pending, id)
	d.done.Add(id)
	return Result{ID: id, Status: protocol.ActionStatusError, ExecutionTime: float64(d.timeout.Milliseconds()), Error: timeoutMessage}, true
}

// UnknownResultErrorMessage returns the CLIENT_ERROR text for an
// ACTION_RESULT with no matching pending entry.
func UnknownResultErrorMessage(id string) string {
	return fmt.Sprintf("Unknown ACTION_RESULT id: %s", id)
}

// Resolve handles an inbound ACTION_RESULT. A duplicate id (already in the
// completed window) yields ResolveDuplicate and must be dropped silently.
// An id with no pending entry yields ResolveUnknown. Otherwise the pending
// timer is cancelled, the id recorded as completed, and the result
// returned for delivery.
func (d *Dispatcher) Resolve(payload protocol.ActionResultPayload) (Result, ResolveOutcome) {
	if d.done.Contains(payload.ID) {
		return Result{}, ResolveDuplicate
	}

	handle, ok := d.pending[payload.ID]
	if !ok {
		return Result{}, ResolveUnknown
	}

	delete(d.pending, payload.ID)
	d.done.Add(payload.ID)
	handle.Cancel()

	return Result{
		ID:            payload.ID,
		Status:        payload.Status,
		ExecutionTime: payload.ExecutionTime,
		Error:         payload.Error,
	}, ResolveDelivered
}

// Clear cancels every pending timer and drops all pending entries, used on
// disconnect and on foreground->background transitions. The completed
// window is untouched: ids already resolved must stay suppressed.
func (d *Dispatcher) Clear() {
	for id, h := range d.pending {
		h.Cancel()
		delete(d.pending, id)
	}
}

// PendingCount reports the number of in-flight actions, for tests and
// diagnostics.
func (d *Dispatcher) PendingCount() int { return len(d.pending) }
