// Package transport implements the Transport Adapter: one outbound
// bidirectional WebSocket text channel, delivering open/close/message
// events upward via callbacks and reporting dial failures as Connect's
// error return. Grounded on the teacher's
// internal/gateway.Client readPump/writePump split and the dial pattern in
// cmd/agent_chat.go's runClientMode, adapted from server-accept to
// client-dial.
package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	sendBuffer   = 64
)

// Adapter owns at most one live WebSocket connection at a time. It is not
// safe for concurrent Connect calls; the engine façade serializes access.
type Adapter struct {
	// OnOpen, OnMessage, OnClose are set once by the owner before the
	// first Connect and are read without synchronization thereafter,
	// matching the teacher's callback-closure ownership: the adapter only
	// ever calls back into the façade that constructed it. There is no
	// separate OnError: a dial failure is reported synchronously by
	// Connect's return value (the only point the façade treats as a
	// transport-errored event), and every post-open connection loss,
	// whatever its cause, is normalized to OnClose so it feeds the
	// reconnect scheduler uniformly.
	OnOpen    func()
	OnMessage func(text string)
	OnClose   func(code int, reason string)

	mu     sync.Mutex
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	open   bool
	epoch  uint64 // bumped on every Disconnect, guards stale pump goroutines
}

// New returns an Adapter with no live connection.
func New() *Adapter {
	return &Adapter{}
}

// IsOpen reports whether a connection is currently established.
func (a *Adapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// Connect dials url, first performing a Disconnect so at most one transport
// instance is ever alive. Delivers OnOpen on success, or returns an error
// (the façade surfaces this as SOCKET_ERROR and hands it to the reconnect
// scheduler) if the dial itself fails.
func (a *Adapter) Connect(url string) error {
	a.Disconnect(0, "")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.epoch++
	epoch := a.epoch
	a.conn = conn
	a.send = make(chan []byte, sendBuffer)
	a.done = make(chan struct{})
	a.open = true
	a.mu.Unlock()

	go a.writePump(conn, a.send, a.done, epoch)
	go a.readPump(conn, a.done, epoch)

	if a.OnOpen != nil {
		a.OnOpen()
	}
	return nil
}

// Send writes a text frame if the channel is open. Returns false without
// raising an error if the channel is not open.
func (a *Adapter) Send(text string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return false
	}
	select {
	case a.send <- []byte(text):
		return true
	default:
		slog.Default().With("component", "transport").Warn("send buffer full, dropping frame")
		return false
	}
}

// Disconnect closes the current connection, if any, and detaches its
// handlers first: no further events fire from the prior instance once this
// returns. Idempotent.
func (a *Adapter) Disconnect(code int, reason string) {
	a.mu.Lock()
	if !a.open {
		a.mu.Unlock()
		return
	}
	a.open = false
	a.epoch++
	conn := a.conn
	done := a.done
	a.conn = nil
	a.mu.Unlock()

	close(done)
	if code != 0 {
		deadline := time.Now().Add(writeTimeout)
		msg := websocket.FormatCloseMessage(code, reason)
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
	}
	conn.Close()
}

func (a *Adapter) writePump(conn *websocket.Conn, send chan []byte, done chan struct{}, epoch uint64) {
	for {
		select {
		case <-done:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				a.emitClosed(epoch, websocket.CloseAbnormalClosure, err.Error())
				return
			}
		}
	}
}

func (a *Adapter) readPump(conn *websocket.Conn, done chan struct{}, epoch uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			code, reason := closeInfo(err)
			a.emitClosed(epoch, code, reason)
			return
		}

		a.mu.Lock()
		stale := epoch != a.epoch
		a.mu.Unlock()
		if stale {
			return
		}
		if a.OnMessage != nil {
			a.OnMessage(string(data))
		}
	}
}

// emitClosed reports a closed/errored event, but only if epoch still
// matches the live connection — a stale pump goroutine from a
// already-disconnected instance must never fire callbacks.
func (a *Adapter) emitClosed(epoch uint64, code int, reason string) {
	a.mu.Lock()
	stale := epoch != a.epoch
	if !stale {
		a.open = false
	}
	a.mu.Unlock()
	if stale {
		return
	}
	if a.OnClose != nil {
		a.OnClose(code, reason)
	}
}

func closeInfo(err error) (int, string) {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
