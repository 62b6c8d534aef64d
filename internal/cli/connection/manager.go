package connection

import (
	"context"
	"sync"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

// Manager keeps the one current Connection of the interactive front end.
type Manager struct {
	mu      sync.Mutex
	current *Connection
	opts    []Option
}

// NewManager creates a manager whose connections share opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts}
}

// Connect connects to host:port and makes it the current connection.
//
// When already connected to the same address the current connection is
// returned unchanged; a connection to a different address is disconnected
// first and its events are delivered before the new one connects. On
// failure there is no current connection.
func (m *Manager) Connect(ctx context.Context, host string, port int, extra ...Option) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur := m.current; cur != nil {
		if cur.IsConnected() && cur.Host() == host && cur.Port() == port {
			return cur, nil
		}
		_ = cur.Disconnect()
		cur.Wait()
		m.current = nil
	}

	opts := make([]Option, 0, len(m.opts)+len(extra))
	opts = append(opts, m.opts...)
	opts = append(opts, extra...)

	conn := New(host, port, opts...)
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	m.current = conn
	return conn, nil
}

// Disconnect disconnects and forgets the current connection.
// It fails with ErrNotConnected when there is none.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur == nil || !cur.IsConnected() {
		return domain.ErrNotConnected
	}
	return cur.Disconnect()
}

// Current returns the current connection, or nil.
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsConnected reports whether the current connection is up.
func (m *Manager) IsConnected() bool {
	cur := m.Current()
	return cur != nil && cur.IsConnected()
}

// Close disconnects the current connection, if any, and waits for its
// receive loop to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur != nil {
		_ = cur.Disconnect()
		cur.Wait()
	}
}

// SessionSource returns the current connection's Authenticator for
// metric.SessionCollector, or nil.
func (m *Manager) SessionSource() metric.SessionSource {
	cur := m.Current()
	if cur == nil {
		return nil
	}
	return cur.Authenticator()
}
