package engine

import (
	"encoding/json"
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/connstate"
	"github.com/n1shantvarma/tapvolt-app/internal/dispatcher"
	"github.com/n1shantvarma/tapvolt-app/internal/reconnect"
	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

// handleTransportOpen runs on the command loop in response to the
// transport's OnOpen callback, per spec.md §4.J. A dial runs on its own
// goroutine (openTransport), so Disconnect/background may have already
// suspended the engine by the time this fires; in that case the
// connection is unwanted and is torn down without touching state, rather
// than reviving a session the caller already ended.
func (e *Engine) handleTransportOpen() {
	if e.suspended {
		e.transport.Disconnect(0, "")
		return
	}

	e.reconnectAttempt = 0
	e.cancelReconnectTimer()

	if err := e.setState(connstate.Connected); err != nil {
		return
	}
	e.heartbeat.Start()

	if e.haveIdentity {
		e.sendAuth(e.clientName, e.deviceID)
	}
}

// handleTransportErrored runs when the transport failed to establish a
// connection at all (a dial failure) — spec.md §4.A's "errored" event. The
// Reconnect Scheduler consumes close and error alike (spec.md §4's
// component table), so a dial failure defers to exactly the same
// decision as a post-open close: SOCKET_ERROR is surfaced for
// diagnostics, but it is the scheduler, not this handler, that decides
// whether to retry or give up. A stale failure arriving after the engine
// was suspended is dropped, for the same reason handleTransportOpen drops
// a stale success.
func (e *Engine) handleTransportErrored(err error) {
	if e.suspended {
		return
	}
	e.logger.Warn("transport dial failed", "error", err)
	e.emitError(protocol.ErrSocketError, "WebSocket connection error.")
	e.scheduleReconnectOrSettle()
}

// handleTransportClosed runs on the command loop in response to the
// transport's OnClose callback, per spec.md §4.F/§4.J: either settle into
// DISCONNECTED (suspended, or no remembered target) or hand off to the
// reconnect scheduler.
func (e *Engine) handleTransportClosed(code int, reason string) {
	if e.suspended {
		e.setState(connstate.Disconnected)
		return
	}
	e.scheduleReconnectOrSettle()
}

// scheduleReconnectOrSettle runs the Reconnect Scheduler's decision table
// (spec.md §4.F) for one close-or-error event.
func (e *Engine) scheduleReconnectOrSettle() {
	outcome, next, delay := reconnect.Decide(e.hasTarget, e.reconnectAttempt)
	switch outcome {
	case reconnect.OutcomeStop:
		e.setState(connstate.Disconnected)
	case reconnect.OutcomeExhausted:
		e.emitError(protocol.ErrClientError, "Reconnect failed after 10 attempts.")
		e.setState(connstate.Error)
	case reconnect.OutcomeScheduled:
		e.reconnectAttempt = next
		if err := e.setState(connstate.Reconnecting); err != nil {
			return
		}
		e.armReconnectTimer(delay)
	}
}

func (e *Engine) armReconnectTimer(delay time.Duration) {
	e.reconnectHandle = e.timers.Schedule(delay, func() {
		e.postAsync(e.fireReconnectOpen)
	})
}

// fireReconnectOpen runs when the reconnect timer expires; it opens a new
// transport attempt while remaining in RECONNECTING, per spec.md §4.F.
func (e *Engine) fireReconnectOpen() {
	e.reconnectHandle = nil
	if e.suspended || !e.hasTarget {
		return
	}
	e.openTransport(e.targetURL)
}

// handleHeartbeatStale runs when the heartbeat monitor detects the
// connection has gone stale, per spec.md §4.G. The staleness error must be
// emitted before the RECONNECTING transition, per spec.md §5's ordering
// guarantee.
func (e *Engine) handleHeartbeatStale() {
	e.emitError(protocol.ErrClientError, "Heartbeat timeout. Reconnecting.")
	e.transport.Disconnect(heartbeatCloseCode, heartbeatCloseReason)
	e.handleTransportClosed(heartbeatCloseCode, heartbeatCloseReason)
}

const (
	heartbeatCloseCode   = 4000
	heartbeatCloseReason = "Heartbeat timeout"
)

// handleActionTimeout runs when a dispatched action's 8s timer fires with
// no server result, per spec.md §4.H.
func (e *Engine) handleActionTimeout(id string) {
	result, fired := e.dispatcher.HandleTimeout(id)
	if !fired {
		return
	}
	if e.observers.OnActionTimeout != nil {
		e.observers.OnActionTimeout(id)
	}
	if e.observers.OnActionResult != nil {
		e.observers.OnActionResult(result)
	}
	e.emitError(protocol.ErrClientError, "Action "+id+" timed out after 8 seconds.")
}

// handleMessage decodes one inbound text frame and routes it, per
// spec.md §4.B.
func (e *Engine) handleMessage(text string) {
	msg := protocol.Decode([]byte(text))
	switch msg.Kind {
	case protocol.InboundPing:
		e.heartbeat.RecordLiveness()
		if e.observers.OnHeartbeat != nil {
			e.observers.OnHeartbeat(e.cfg.Now())
		}
		e.sendPong()
	case protocol.InboundAuthSuccess:
		if e.observers.OnAuthSuccess != nil {
			e.observers.OnAuthSuccess()
		}
	case protocol.InboundAuthFailure:
		e.logger.Warn("auth failure frame received", "raw", msg.ErrorRaw)
		if e.observers.OnAuthFailure != nil {
			e.observers.OnAuthFailure()
		}
	case protocol.InboundError:
		e.logger.Warn("server error frame", "raw", msg.ErrorRaw, "code", msg.Error.Code)
		e.emitError(msg.Error.Code, msg.Error.Message)
	case protocol.InboundActionResult:
		e.handleActionResult(msg.Result)
	default:
		e.logger.Warn("invalid server message", "raw", msg.RawFrame)
		e.emitError(protocol.ErrInvalidServerMessage, "Invalid message received from desktop.")
	}
}

func (e *Engine) handleActionResult(payload protocol.ActionResultPayload) {
	result, outcome := e.dispatcher.Resolve(payload)
	switch outcome {
	case dispatcher.ResolveDuplicate:
		return
	case dispatcher.ResolveUnknown:
		e.emitError(protocol.ErrClientError, dispatcher.UnknownResultErrorMessage(payload.ID))
	case dispatcher.ResolveDelivered:
		if e.observers.OnActionResult != nil {
			e.observers.OnActionResult(result)
		}
	}
}

func (e *Engine) sendPong() {
	frame := protocol.NewPongFrame(e.cfg.Now().UnixMilli())
	data, err := json.Marshal(frame)
	if err != nil {
		e.logger.Error("marshal PONG failed", "error", err)
		return
	}
	e.transport.Send(string(data))
}

// handleBackgrounded runs when the Lifecycle Gate reports a backgrounded
// event, per spec.md §4.I.
func (e *Engine) handleBackgrounded() {
	e.suspended = true
	e.cancelReconnectTimer()
	e.heartbeat.Stop()
	e.dispatcher.Clear()
	e.transport.Disconnect(0, "")
	e.setState(connstate.Disconnected)
}

// handleForegrounded runs when the Lifecycle Gate reports a foregrounded
// event, per spec.md §4.I. Does nothing if no target URL is remembered.
func (e *Engine) handleForegrounded() {
	if !e.hasTarget {
		return
	}
	e.suspended = false
	e.reconnectAttempt = 0
	if err := e.setState(connstate.Connecting); err != nil {
		return
	}
	e.openTransport(e.targetURL)
}
