// Package engine implements the Engine Façade (component J): the single
// public surface over the Connection Engine's transport, codec, validator,
// state machine, reconnect scheduler, heartbeat monitor, action dispatcher,
// and lifecycle gate. Grounded on the teacher's internal/gateway.Client
// wiring style and cmd/agent_chat.go's dial-then-drive orchestration,
// tightened into a serialized command loop so every mutation runs on one
// logical thread of control, matching the single-threaded cooperative
// scheduling model this engine requires.
package engine

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/connstate"
	"github.com/n1shantvarma/tapvolt-app/internal/dispatcher"
	"github.com/n1shantvarma/tapvolt-app/internal/heartbeatmon"
	"github.com/n1shantvarma/tapvolt-app/internal/lifecycle"
	"github.com/n1shantvarma/tapvolt-app/internal/timersvc"
	"github.com/n1shantvarma/tapvolt-app/internal/transport"
	"github.com/n1shantvarma/tapvolt-app/internal/validator"
	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

// IdentityResolver resolves the persistent device identifier, satisfied by
// *internal/identity.Store in production and stubbable in tests.
type IdentityResolver interface {
	ResolveOrCreate() (string, error)
}

// Observers is the single mutable observer record the façade notifies, per
// SPEC_FULL.md §9's note that a multi-subscriber bus is unnecessary here.
// Every field is optional; nil callbacks are simply skipped.
type Observers struct {
	OnStateChange   func(state connstate.State, attempt int)
	OnConnected     func()
	OnDisconnected  func()
	OnAuthSuccess   func()
	OnAuthFailure   func()
	OnActionResult  func(result dispatcher.Result)
	OnActionTimeout func(id string)
	OnError         func(err protocol.ErrorEnvelope)
	// OnWarning receives the current non-fatal warning, or "" when a
	// prior warning is cleared (there is no null in Go; empty string is
	// the clear signal, matching the string|null contract).
	OnWarning   func(warning string)
	OnHeartbeat func(at time.Time)
}

// Engine is the Connection Engine's public surface. Exported methods are
// safe to call from any goroutine other than the command loop itself: each
// posts its work onto the engine's single command loop and only that loop
// ever touches the fields below, so there is no locking inside the engine's
// own state. Observer callbacks run on the command loop, so an exported
// method that waits for the loop (every one except Close and
// GetLastHeartbeat) blocks forever when called synchronously from inside
// an observer.
type Engine struct {
	cfg    Options
	logger *slog.Logger

	transport  *transport.Adapter
	timers     *timersvc.Service
	state      *connstate.Machine
	dispatcher *dispatcher.Dispatcher
	heartbeat  *heartbeatmon.Monitor
	identity   IdentityResolver
	gate       *lifecycle.Gate

	commands chan func()
	stopCh   chan struct{}
	stopOnce sync.Once

	observers Observers

	targetURL        string
	hasTarget        bool
	suspended        bool
	reconnectAttempt int
	reconnectHandle  *timersvc.Handle

	clientName   string
	deviceID     string
	haveIdentity bool
}

// New constructs an Engine with the production Engine Configuration.
// identityResolver is the external identity collaborator (spec.md §6);
// logger is tagged per-component the way the rest of this repo logs.
func New(identityResolver IdentityResolver, logger *slog.Logger) *Engine {
	return NewWithOptions(DefaultOptions(), identityResolver, logger)
}

// NewWithOptions is New with an overridable Engine Configuration, for tests
// that need to shrink the heartbeat/action timeouts.
func NewWithOptions(opts Options, identityResolver IdentityResolver, logger *slog.Logger) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:       opts,
		logger:    logger.With("component", "engine"),
		transport: transport.New(),
		timers:    timersvc.New(),
		state:     connstate.New(),
		identity:  identityResolver,
		gate:      &lifecycle.Gate{},
		commands:  make(chan func(), 64),
		stopCh:    make(chan struct{}),
	}
	e.dispatcher = dispatcher.NewWithConfig(e.timers, opts.Now, opts.ActionTimeout, opts.CompletedWindow)
	e.heartbeat = heartbeatmon.NewWithConfig(e.timers, heartbeatmon.Clock(opts.Now), func() {
		e.postAsync(e.handleHeartbeatStale)
	}, opts.HeartbeatThreshold, opts.HeartbeatCadence)

	e.transport.OnOpen = func() { e.postAsync(e.handleTransportOpen) }
	e.transport.OnClose = func(code int, reason string) {
		e.postAsync(func() { e.handleTransportClosed(code, reason) })
	}
	e.transport.OnMessage = func(text string) {
		e.postAsync(func() { e.handleMessage(text) })
	}

	go e.run()
	return e
}

// Close stops the engine's command loop. It does not touch the transport or
// any live timer; callers should Disconnect first for a clean teardown.
func (e *Engine) Close() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

func (e *Engine) run() {
	for {
		select {
		case fn := <-e.commands:
			fn()
		case <-e.stopCh:
			return
		}
	}
}

// postAsync enqueues fn to run on the command loop without waiting for it.
// This is the only way any goroutine other than the loop itself may touch
// engine state — timer callbacks and transport callbacks always go through
// this, never mutating fields directly.
func (e *Engine) postAsync(fn func()) {
	select {
	case e.commands <- fn:
	case <-e.stopCh:
	}
}

// post enqueues fn and blocks the caller until it has run, giving public
// methods synchronous semantics while still executing on the single
// command loop.
func (e *Engine) post(fn func()) {
	done := make(chan struct{})
	e.postAsync(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-e.stopCh:
	}
}

// SetObservers wires the observer record. One-time setup, per spec.md
// §4.J; call before Connect.
func (e *Engine) SetObservers(o Observers) {
	e.post(func() { e.observers = o })
}

// InitializeLifecycleHandling wires the Lifecycle Gate to source, so
// foreground/background events reach the façade's suspend/resume logic.
// One-time setup, per spec.md §4.J.
func (e *Engine) InitializeLifecycleHandling(source lifecycle.Source) {
	e.post(func() {
		e.gate.OnForeground = func() { e.postAsync(e.handleForegrounded) }
		e.gate.OnBackground = func() { e.postAsync(e.handleBackgrounded) }
		e.gate.Wire(source)
	})
}

// Connect normalizes rawAddress into a target URL and begins opening a
// transport, per spec.md §4.J.
func (e *Engine) Connect(rawAddress string) {
	e.post(func() {
		trimmed := strings.TrimSpace(rawAddress)
		if trimmed == "" {
			e.emitError(protocol.ErrClientError, "IP address is required.")
			e.setState(connstate.Error)
			return
		}

		e.targetURL = normalizeURL(trimmed)
		e.hasTarget = true
		e.reconnectAttempt = 0
		e.suspended = false
		e.cancelReconnectTimer()
		e.dispatcher.Clear()

		if err := e.setState(connstate.Connecting); err != nil {
			return
		}
		e.openTransport(e.targetURL)
	})
}

// openTransport dials url on its own goroutine so the command loop is
// never blocked on network I/O; the outcome (open or dial failure) is
// posted back as a command, exactly like every other transport event.
func (e *Engine) openTransport(url string) {
	go func() {
		if err := e.transport.Connect(url); err != nil {
			e.postAsync(func() { e.handleTransportErrored(err) })
		}
	}()
}

// Authenticate resolves the device identity (a suspension point per
// spec.md §5/§9) and sends AUTH. The engine's command loop is free to
// process other work while identity resolution is in flight; only the
// caller of Authenticate blocks, waiting on resultCh.
func (e *Engine) Authenticate(clientName string) bool {
	resultCh := make(chan bool, 1)
	e.postAsync(func() {
		trimmed := strings.TrimSpace(clientName)
		if trimmed == "" {
			e.emitError(protocol.ErrClientError, "Client ID is required.")
			resultCh <- false
			return
		}
		if e.state.Current() != connstate.Connected {
			e.emitError(protocol.ErrClientError, "WebSocket is not connected.")
			resultCh <- false
			return
		}

		go func() {
			deviceID, err := e.identity.ResolveOrCreate()
			e.postAsync(func() { e.finishAuthenticate(trimmed, deviceID, err, resultCh) })
		}()
	})
	return <-resultCh
}

// finishAuthenticate resumes after identity resolution. Per spec.md §9 it
// must re-check state, since the transport may have dropped while the
// resolver was in flight.
func (e *Engine) finishAuthenticate(clientName, deviceID string, err error, resultCh chan bool) {
	if err != nil {
		e.emitError(protocol.ErrClientError, "Failed to load device identity.")
		resultCh <- false
		return
	}
	if e.state.Current() != connstate.Connected {
		e.emitError(protocol.ErrClientError, "WebSocket is not connected.")
		resultCh <- false
		return
	}

	e.clientName = clientName
	e.deviceID = deviceID
	e.haveIdentity = true

	ok := e.sendAuth(clientName, deviceID)
	resultCh <- ok
}

func (e *Engine) sendAuth(clientName, deviceID string) bool {
	frame := protocol.NewAuthFrame(clientName, deviceID)
	data, err := json.Marshal(frame)
	if err != nil {
		e.logger.Error("marshal AUTH failed", "error", err)
		return false
	}
	if !e.transport.Send(string(data)) {
		e.emitError(protocol.ErrClientError, "WebSocket is not connected.")
		return false
	}
	return true
}

// SendAction validates and dispatches an action built from steps, per
// spec.md §4.H. steps corresponds to the Action's non-empty step list
// (spec.md §3); a single-step convenience is just steps of length 1.
// Returns the minted id, or ("", false) if validation or send failed.
func (e *Engine) SendAction(steps []protocol.Step) (string, bool) {
	var id string
	var ok bool
	e.post(func() {
		candidateID := e.dispatcher.NextID()
		action := protocol.Action{ID: candidateID, Steps: steps}

		result := validator.Validate(action)
		e.emitWarning(result.Warning)
		if !result.OK() {
			e.emitError(result.Code, result.Message)
			return
		}

		frame := protocol.NewExecuteActionFrame(action, e.cfg.Now().UnixMilli())
		data, err := json.Marshal(frame)
		if err != nil {
			e.logger.Error("marshal EXECUTE_ACTION failed", "error", err)
			e.emitError(protocol.ErrClientError, "WebSocket is not connected.")
			return
		}
		if !e.transport.Send(string(data)) {
			e.emitError(protocol.ErrClientError, "WebSocket is not connected.")
			return
		}

		e.dispatcher.Arm(candidateID, func(firedID string) {
			e.postAsync(func() { e.handleActionTimeout(firedID) })
		})
		id, ok = candidateID, true
	})
	return id, ok
}

// Disconnect suspends the engine, cancels every live timer and pending
// action, and forces state to DISCONNECTED, per spec.md §4.J.
func (e *Engine) Disconnect() {
	e.post(func() {
		e.suspended = true
		e.cancelReconnectTimer()
		e.heartbeat.Stop()
		e.dispatcher.Clear()
		e.hasTarget = false
		e.targetURL = ""
		e.transport.Disconnect(0, "")
		e.setState(connstate.Disconnected)
	})
}

// GetState returns the current connection state.
func (e *Engine) GetState() connstate.State {
	var s connstate.State
	e.post(func() { s = e.state.Current() })
	return s
}

// GetReconnectAttempt returns the current reconnect attempt ordinal.
func (e *Engine) GetReconnectAttempt() int {
	var n int
	e.post(func() { n = e.reconnectAttempt })
	return n
}

// GetLastHeartbeat returns the last recorded liveness timestamp.
func (e *Engine) GetLastHeartbeat() time.Time {
	return e.heartbeat.LastLiveness()
}

func (e *Engine) emitError(code, message string) {
	if e.observers.OnError != nil {
		e.observers.OnError(protocol.ErrorEnvelope{Code: code, Message: message})
	}
}

func (e *Engine) emitWarning(warning string) {
	if e.observers.OnWarning != nil {
		e.observers.OnWarning(warning)
	}
}

// setState drives the guarded transition, then the side effects every
// accepted transition carries: heartbeat disarm on leaving CONNECTED, and
// onConnected/onDisconnected on crossing into CONNECTED/DISCONNECTED.
// onStateChange fires for every accepted transition, including
// self-transitions, matching spec.md §4.E's "on every accepted transition"
// wording.
func (e *Engine) setState(to connstate.State) error {
	from := e.state.Current()
	if err := e.state.Transition(to); err != nil {
		if ite, ok := err.(*connstate.IllegalTransitionError); ok {
			e.emitError(protocol.ErrClientError, ite.Error())
		}
		return err
	}

	if from == connstate.Connected && to != connstate.Connected {
		e.heartbeat.Stop()
	}
	if e.observers.OnStateChange != nil {
		e.observers.OnStateChange(to, e.reconnectAttempt)
	}
	if to == connstate.Connected && from != connstate.Connected {
		if e.observers.OnConnected != nil {
			e.observers.OnConnected()
		}
	}
	if to == connstate.Disconnected && from != connstate.Disconnected {
		if e.observers.OnDisconnected != nil {
			e.observers.OnDisconnected()
		}
	}
	return nil
}

func (e *Engine) cancelReconnectTimer() {
	if e.reconnectHandle != nil {
		e.reconnectHandle.Cancel()
		e.reconnectHandle = nil
	}
}

// normalizeURL prepends ws:// unless the input already carries a ws(s)://
// scheme, per spec.md §6.
func normalizeURL(input string) string {
	if strings.HasPrefix(input, "ws://") || strings.HasPrefix(input, "wss://") {
		return input
	}
	return "ws://" + input
}
