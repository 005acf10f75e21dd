// Package lifecycle implements the Lifecycle Gate (component I) and its
// CLI signal-driven Source (component N), the stand-in for a mobile OS
// foreground/background collaborator.
package lifecycle

// Event is a host lifecycle signal.
type Event int

const (
	Foregrounded Event = iota
	Backgrounded
)

// Source emits lifecycle events to every function passed to Subscribe.
type Source interface {
	Subscribe(func(Event))
}

// Gate translates foreground/background events into suspend/resume calls
// on the engine's reconnect scheduler, heartbeat monitor, and dispatcher.
// It holds no suspend logic itself — that belongs to the engine façade,
// which wires OnForeground/OnBackground to its own suspend/resume methods.
type Gate struct {
	OnForeground func()
	OnBackground func()
}

// Handle dispatches one event to the matching callback.
func (g *Gate) Handle(e Event) {
	switch e {
	case Foregrounded:
		if g.OnForeground != nil {
			g.OnForeground()
		}
	case Backgrounded:
		if g.OnBackground != nil {
			g.OnBackground()
		}
	}
}

// Wire subscribes the gate to a Source.
func (g *Gate) Wire(s Source) {
	s.Subscribe(g.Handle)
}
