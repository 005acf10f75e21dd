// Package connstate implements the Connection Engine's five-state
// connection lifecycle with guarded transitions.
package connstate

import "fmt"

// State is one of the five connection lifecycle states.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Reconnecting:
		return "RECONNECTING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// allowed is the guarded transition table. Self-transitions are permitted
// for every state and are handled separately in Machine.Transition, so they
// are not listed here.
var allowed = map[State]map[State]bool{
	Disconnected: {Connecting: true, Error: true},
	Connecting:   {Disconnected: true, Connected: true, Reconnecting: true, Error: true},
	Connected:    {Disconnected: true, Reconnecting: true, Error: true},
	Reconnecting: {Disconnected: true, Connected: true, Error: true},
	Error:        {Disconnected: true, Connecting: true, Reconnecting: true},
}

// IllegalTransitionError reports a rejected transition attempt. The state
// machine does not mutate on this error.
type IllegalTransitionError struct {
	From, To State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("Illegal state transition: %s -> %s", e.From, e.To)
}

// Machine holds the current state. It is not safe for concurrent use; the
// engine façade is the sole owner and mutator, per the single-writer
// concurrency model.
type Machine struct {
	current State
}

// New returns a Machine starting in Disconnected.
func New() *Machine {
	return &Machine{current: Disconnected}
}

// Current returns the current state.
func (m *Machine) Current() State { return m.current }

// Transition attempts to move to "to". Self-transitions always succeed. A
// disallowed transition leaves the state unchanged and returns an
// *IllegalTransitionError for the caller to surface as a CLIENT_ERROR.
func (m *Machine) Transition(to State) error {
	if to == m.current {
		return nil
	}
	if allowed[m.current][to] {
		m.current = to
		return nil
	}
	return &IllegalTransitionError{From: m.current, To: to}
}
