package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// CLIAdapter maps SIGUSR1 -> Backgrounded and SIGUSR2 -> Foregrounded, since
// a CLI process has no mobile-OS foreground/background concept of its own.
// Simulate lets tests and `tapvolt doctor` exercise the gate without
// sending real signals, in the manner of the teacher's
// signal.NotifyContext usage in cmd/agent_chat.go.
type CLIAdapter struct {
	mu        sync.Mutex
	observers []func(Event)
	sigCh     chan os.Signal
	done      chan struct{}
}

// NewCLIAdapter returns an adapter that is not yet listening; call Start.
func NewCLIAdapter() *CLIAdapter {
	return &CLIAdapter{sigCh: make(chan os.Signal, 2)}
}

// Subscribe registers fn to receive every emitted event.
func (a *CLIAdapter) Subscribe(fn func(Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Start begins listening for SIGUSR1/SIGUSR2.
func (a *CLIAdapter) Start() {
	signal.Notify(a.sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	a.done = make(chan struct{})
	go a.loop()
}

// Stop stops listening for signals.
func (a *CLIAdapter) Stop() {
	signal.Stop(a.sigCh)
	if a.done != nil {
		close(a.done)
	}
}

// Simulate programmatically emits an event, bypassing real OS signals.
func (a *CLIAdapter) Simulate(e Event) {
	a.emit(e)
}

func (a *CLIAdapter) loop() {
	for {
		select {
		case <-a.done:
			return
		case sig := <-a.sigCh:
			switch sig {
			case syscall.SIGUSR1:
				a.emit(Backgrounded)
			case syscall.SIGUSR2:
				a.emit(Foregrounded)
			}
		}
	}
}

func (a *CLIAdapter) emit(e Event) {
	a.mu.Lock()
	observers := make([]func(Event), len(a.observers))
	copy(observers, a.observers)
	a.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}
