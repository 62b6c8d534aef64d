package connection

import (
	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/protocol"
)

// Listener receives connection events.
//
// Callbacks are invoked one at a time, in wire order, on the receive
// goroutine; a link's events all precede the next link's OnConnected.
// For each link OnDisconnected fires exactly once and is its last event.
// OnError precedes it when the link broke rather than being closed by
// Disconnect.
type Listener interface {
	OnConnected()
	OnDisconnected()
	OnMessageReceived(frame []byte)
	OnError(err error)
}

// ListenerFuncs adapts optional functions to a Listener.
// Nil fields are ignored.
type ListenerFuncs struct {
	Connected       func()
	Disconnected    func()
	MessageReceived func(frame []byte)
	Error           func(err error)
}

// OnConnected implements Listener.
func (f ListenerFuncs) OnConnected() {
	if f.Connected != nil {
		f.Connected()
	}
}

// OnDisconnected implements Listener.
func (f ListenerFuncs) OnDisconnected() {
	if f.Disconnected != nil {
		f.Disconnected()
	}
}

// OnMessageReceived implements Listener.
func (f ListenerFuncs) OnMessageReceived(frame []byte) {
	if f.MessageReceived != nil {
		f.MessageReceived(frame)
	}
}

// OnError implements Listener.
func (f ListenerFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// MessageHandler is a Listener that decodes inbound frames.
//
// Authentication responses are applied to the connection's Authenticator.
// Decode failures are reported through Next.OnError and never tear down
// the link. Every event is forwarded to Next after handling.
type MessageHandler struct {
	conn *Connection

	// Next receives every event after the handler; may be nil.
	Next Listener

	// OnMessage is called with each decoded message; may be nil.
	OnMessage func(msg protocol.Message)

	// OnAuthResult is called after an AuthenticationResponse was applied,
	// with the error ApplyResponse returned; may be nil.
	OnAuthResult func(resp *protocol.AuthenticationResponse, err error)
}

// NewMessageHandler creates a handler for conn forwarding to next.
func NewMessageHandler(conn *Connection, next Listener) *MessageHandler {
	return &MessageHandler{conn: conn, Next: next}
}

// OnConnected implements Listener.
func (h *MessageHandler) OnConnected() {
	if h.Next != nil {
		h.Next.OnConnected()
	}
}

// OnDisconnected implements Listener.
func (h *MessageHandler) OnDisconnected() {
	if h.Next != nil {
		h.Next.OnDisconnected()
	}
}

// OnError implements Listener.
func (h *MessageHandler) OnError(err error) {
	if h.Next != nil {
		h.Next.OnError(err)
	}
}

// OnMessageReceived implements Listener.
func (h *MessageHandler) OnMessageReceived(frame []byte) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		h.conn.recordDecodeError(err)
		h.OnError(err)
		return
	}

	h.conn.log.Debug("message received", "id", msg.ID().String(), "bytes", len(frame))

	if resp, ok := msg.(*protocol.AuthenticationResponse); ok {
		applyErr := h.conn.applyAuthResponse(resp)
		if h.OnAuthResult != nil {
			h.OnAuthResult(resp, applyErr)
		}
	}

	if h.OnMessage != nil {
		h.OnMessage(msg)
	}
	if h.Next != nil {
		h.Next.OnMessageReceived(frame)
	}
}

// decodeErrorCode labels decode failures for metrics.
func decodeErrorCode(err error) string {
	if code := domain.GetErrorCode(err); code != "" {
		return code
	}
	return "unknown"
}
