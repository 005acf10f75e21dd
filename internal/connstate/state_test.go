package connstate

import "testing"

func TestNewStartsDisconnected(t *testing.T) {
	m := New()
	if m.Current() != Disconnected {
		t.Fatalf("expected Disconnected, got %v", m.Current())
	}
}

func TestSelfTransitionsAlwaysAllowed(t *testing.T) {
	for _, s := range []State{Disconnected, Connecting, Connected, Reconnecting, Error} {
		m := &Machine{current: s}
		if err := m.Transition(s); err != nil {
			t.Errorf("self-transition on %v should be allowed, got %v", s, err)
		}
		if m.Current() != s {
			t.Errorf("self-transition mutated state from %v to %v", s, m.Current())
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Disconnected, Connecting},
		{Disconnected, Error},
		{Connecting, Disconnected},
		{Connecting, Connected},
		{Connecting, Reconnecting},
		{Connecting, Error},
		{Connected, Disconnected},
		{Connected, Reconnecting},
		{Connected, Error},
		{Reconnecting, Disconnected},
		{Reconnecting, Connected},
		{Reconnecting, Error},
		{Error, Disconnected},
		{Error, Connecting},
		{Error, Reconnecting},
	}
	for _, c := range cases {
		m := &Machine{current: c.from}
		if err := m.Transition(c.to); err != nil {
			t.Errorf("%v -> %v should be allowed, got error: %v", c.from, c.to, err)
		}
		if m.Current() != c.to {
			t.Errorf("%v -> %v: expected current %v, got %v", c.from, c.to, c.to, m.Current())
		}
	}
}

func TestDisallowedTransitionsDoNotMutate(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{Disconnected, Connected},
		{Disconnected, Reconnecting},
		{Connected, Connecting},
		{Reconnecting, Connecting},
		{Error, Connected},
	}
	for _, c := range cases {
		m := &Machine{current: c.from}
		err := m.Transition(c.to)
		if err == nil {
			t.Errorf("%v -> %v should be rejected", c.from, c.to)
			continue
		}
		if _, ok := err.(*IllegalTransitionError); !ok {
			t.Errorf("%v -> %v: expected *IllegalTransitionError, got %T", c.from, c.to, err)
		}
		if m.Current() != c.from {
			t.Errorf("%v -> %v: rejected transition mutated state to %v", c.from, c.to, m.Current())
		}
	}
}

func TestIllegalTransitionErrorMessage(t *testing.T) {
	m := &Machine{current: Disconnected}
	err := m.Transition(Connected)
	want := "Illegal state transition: DISCONNECTED -> CONNECTED"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
