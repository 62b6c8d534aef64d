// Package connection implements the client side of a game server link.
//
//   - connection.go: framed transport, receive loop and the connection
//     state machine (Disconnected, Connected)
//   - listener.go: event callbacks and MessageHandler, which decodes frames
//     and applies authentication responses
//   - options.go: dial, deadline, TLS, rate limit and telemetry options
//   - manager.go: the single current connection of the interactive front end
//
// Each live connection owns exactly one receive goroutine. Socket state and
// authentication transitions are serialized by one per-connection mutex;
// the Authenticator keeps its own inner lock, always taken second.
// Listener callbacks run on the receive goroutine without the lock held, so
// a callback may call back into the Connection.
package connection
