package reconnect

import (
	"testing"
	"time"
)

func TestDelaySequenceMatchesSpec(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for i, w := range want {
		attempt := i + 1
		if got := Delay(attempt); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestDecideWithoutTargetStops(t *testing.T) {
	outcome, _, _ := Decide(false, 0)
	if outcome != OutcomeStop {
		t.Fatalf("expected OutcomeStop, got %v", outcome)
	}
}

func TestDecideAtAttemptCapExhausts(t *testing.T) {
	outcome, _, _ := Decide(true, MaxAttempts)
	if outcome != OutcomeExhausted {
		t.Fatalf("expected OutcomeExhausted at attempt cap, got %v", outcome)
	}
}

func TestDecideBelowCapSchedules(t *testing.T) {
	outcome, next, delay := Decide(true, 3)
	if outcome != OutcomeScheduled {
		t.Fatalf("expected OutcomeScheduled, got %v", outcome)
	}
	if next != 4 {
		t.Fatalf("expected next attempt 4, got %d", next)
	}
	if delay != 8*time.Second {
		t.Fatalf("expected 8s delay for attempt 4, got %v", delay)
	}
}

func TestTenthAttemptSucceedsEleventhExhausts(t *testing.T) {
	outcome, next, _ := Decide(true, 9)
	if outcome != OutcomeScheduled || next != 10 {
		t.Fatalf("expected attempt 10 to be scheduled, got outcome=%v next=%d", outcome, next)
	}
	outcome, _, _ = Decide(true, 10)
	if outcome != OutcomeExhausted {
		t.Fatalf("expected 11th attempt to be exhausted, got %v", outcome)
	}
}
