package dispatcher

import (
	"sync"
	"testing"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/timersvc"
	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

func newTestDispatcher() *Dispatcher {
	return New(timersvc.New(), time.Now)
}

func TestNextIDIsUnique(t *testing.T) {
	d := newTestDispatcher()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := d.NextID()
		if seen[id] {
			t.Fatalf("duplicate id minted: %s", id)
		}
		seen[id] = true
	}
}

func TestArmThenResolveDeliversResult(t *testing.T) {
	d := newTestDispatcher()
	id := d.NextID()
	d.Arm(id, func(string) { t.Fatal("timeout should not fire") })

	result, outcome := d.Resolve(protocol.ActionResultPayload{
		ID:            id,
		Status:        protocol.ActionStatusSuccess,
		ExecutionTime: 42,
	})
	if outcome != ResolveDelivered {
		t.Fatalf("expected ResolveDelivered, got %v", outcome)
	}
	if result.ID != id || result.Status != protocol.ActionStatusSuccess || result.ExecutionTime != 42 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if d.PendingCount() != 0 {
		t.Fatalf("expected no pending entries after resolve, got %d", d.PendingCount())
	}
}

func TestResolveUnknownIDIsReported(t *testing.T) {
	d := newTestDispatcher()
	_, outcome := d.Resolve(protocol.ActionResultPayload{ID: "never-armed"})
	if outcome != ResolveUnknown {
		t.Fatalf("expected ResolveUnknown, got %v", outcome)
	}
}

func TestDuplicateResolveIsSilentlyDropped(t *testing.T) {
	d := newTestDispatcher()
	id := d.NextID()
	d.Arm(id, func(string) {})

	if _, outcome := d.Resolve(protocol.ActionResultPayload{ID: id, Status: protocol.ActionStatusSuccess}); outcome != ResolveDelivered {
		t.Fatal("expected first resolve to deliver")
	}
	if _, outcome := d.Resolve(protocol.ActionResultPayload{ID: id, Status: protocol.ActionStatusSuccess}); outcome != ResolveDuplicate {
		t.Fatalf("expected second resolve to be ResolveDuplicate, got %v", outcome)
	}
}

func TestTimeoutFiresWhenNoResultArrives(t *testing.T) {
	d := New(timersvc.New(), time.Now)
	id := d.NextID()

	var mu sync.Mutex
	fired := make(chan struct{})
	d.Arm(id, func(firedID string) {
		mu.Lock()
		defer mu.Unlock()
		if firedID != id {
			t.Errorf("unexpected id in timeout callback: %s", firedID)
		}
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(PerActionTimeout + 2*time.Second):
		t.Fatal("timed out waiting for dispatcher timeout to fire")
	}

	result, ok := d.HandleTimeout(id)
	if !ok {
		t.Fatal("expected HandleTimeout to report a fired timeout")
	}
	if result.Status != protocol.ActionStatusError || result.ExecutionTime != 8000 {
		t.Fatalf("unexpected synthetic timeout result: %+v", result)
	}
	if result.Error != timeoutMessage {
		t.Fatalf("unexpected timeout error message: %q", result.Error)
	}
}

func TestHandleTimeoutIsNoopWhenAlreadyResolved(t *testing.T) {
	d := newTestDispatcher()
	id := d.NextID()
	d.Arm(id, func(string) {})

	if _, outcome := d.Resolve(protocol.ActionResultPayload{ID: id, Status: protocol.ActionStatusSuccess}); outcome != ResolveDelivered {
		t.Fatal("expected resolve to deliver before the stale timer fire")
	}

	if _, ok := d.HandleTimeout(id); ok {
		t.Fatal("expected HandleTimeout to be a no-op for an already-resolved id")
	}
}

func TestResolveIsNoopAfterHandleTimeout(t *testing.T) {
	d := newTestDispatcher()
	id := d.NextID()
	d.Arm(id, func(string) {})

	if _, ok := d.HandleTimeout(id); !ok {
		t.Fatal("expected first HandleTimeout call to fire")
	}

	if _, outcome := d.Resolve(protocol.ActionResultPayload{ID: id, Status: protocol.ActionStatusSuccess}); outcome != ResolveDuplicate {
		t.Fatalf("expected a late result after timeout to be ResolveDuplicate, got %v", outcome)
	}
}

func TestClearCancelsPendingWithoutTouchingCompletedWindow(t *testing.T) {
	d := newTestDispatcher()
	resolved := d.NextID()
	d.Arm(resolved, func(string) {})
	d.Resolve(protocol.ActionResultPayload{ID: resolved, Status: protocol.ActionStatusSuccess})

	pending := d.NextID()
	d.Arm(pending, func(string) { t.Fatal("cleared timer must not fire") })

	d.Clear()
	if d.PendingCount() != 0 {
		t.Fatalf("expected Clear to drop all pending entries, got %d", d.PendingCount())
	}

	if _, outcome := d.Resolve(protocol.ActionResultPayload{ID: resolved, Status: protocol.ActionStatusSuccess}); outcome != ResolveDuplicate {
		t.Fatalf("expected previously-completed id to still be suppressed after Clear, got %v", outcome)
	}

	time.Sleep(50 * time.Millisecond)
}
