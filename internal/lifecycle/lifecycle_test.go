package lifecycle

import (
	"testing"
	"time"
)

func TestGateDispatchesForeground(t *testing.T) {
	var fired bool
	g := &Gate{OnForeground: func() { fired = true }}
	g.Handle(Foregrounded)
	if !fired {
		t.Fatal("expected OnForeground to be called")
	}
}

func TestGateDispatchesBackground(t *testing.T) {
	var fired bool
	g := &Gate{OnBackground: func() { fired = true }}
	g.Handle(Backgrounded)
	if !fired {
		t.Fatal("expected OnBackground to be called")
	}
}

func TestGateNilCallbacksDoNotPanic(t *testing.T) {
	g := &Gate{}
	g.Handle(Foregrounded)
	g.Handle(Backgrounded)
}

func TestCLIAdapterSimulateReachesWiredGate(t *testing.T) {
	a := NewCLIAdapter()
	var events []Event
	g := &Gate{
		OnForeground: func() { events = append(events, Foregrounded) },
		OnBackground: func() { events = append(events, Backgrounded) },
	}
	g.Wire(a)

	a.Simulate(Backgrounded)
	a.Simulate(Foregrounded)

	if len(events) != 2 || events[0] != Backgrounded || events[1] != Foregrounded {
		t.Fatalf("unexpected event sequence: %v", events)
	}
}

func TestCLIAdapterMultipleSubscribers(t *testing.T) {
	a := NewCLIAdapter()
	var a1, a2 int
	a.Subscribe(func(Event) { a1++ })
	a.Subscribe(func(Event) { a2++ })

	a.Simulate(Foregrounded)

	if a1 != 1 || a2 != 1 {
		t.Fatalf("expected both subscribers to be notified once, got %d and %d", a1, a2)
	}
}

func TestCLIAdapterStartStopDoesNotPanic(t *testing.T) {
	a := NewCLIAdapter()
	a.Start()
	time.Sleep(10 * time.Millisecond)
	a.Stop()
}
