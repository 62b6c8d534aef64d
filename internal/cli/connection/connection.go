package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/core/service"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
	"github.com/yndnr/habbo-go/internal/telemetry/tracer"
)

// State is the link state of a Connection.
type State int

// Connection states.
const (
	StateDisconnected State = iota
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Connection is a client link to a game server.
//
// It owns one Authenticator for its whole lifetime. A Connection can be
// connected again after a disconnect; each connect starts a new link and
// a stale receive loop never affects a newer one.
type Connection struct {
	id      string
	host    string
	port    int
	opts    Options
	auth    *service.Authenticator
	limiter *rate.Limiter
	metrics *metric.Registry
	log     logger.Logger

	mu            sync.Mutex
	link          *link
	authenticated bool
	listener      Listener
	lastLoop      chan struct{}

	loops sync.WaitGroup
}

// link is one connected socket and its receive loop.
type link struct {
	conn net.Conn
	// cause is why the link went down; nil after Disconnect.
	// Guarded by Connection.mu.
	cause error
	done  chan struct{}
}

// New creates a disconnected Connection to host:port.
func New(host string, port int, opts ...Option) *Connection {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = protocol.DefaultMaxFrameSize
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}

	c := &Connection{
		id:       uuid.NewString(),
		host:     host,
		port:     port,
		opts:     o,
		metrics:  o.Metrics,
		listener: o.Listener,
	}
	c.log = o.Logger.With("conn_id", c.id, "addr", c.Address())

	c.auth = o.Authenticator
	if c.auth == nil {
		authOpts := append([]service.AuthenticatorOption{service.WithAuthLogger(c.log)}, o.AuthOptions...)
		c.auth = service.NewAuthenticator(authOpts...)
	}

	c.limiter = rate.NewLimiter(rate.Inf, 0)
	if o.SendRate > 0 {
		burst := o.SendBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.SendRate), burst)
	}

	if c.listener == nil {
		c.listener = ListenerFuncs{}
	}

	return c
}

// ID returns the connection id attached to every log line.
func (c *Connection) ID() string { return c.id }

// Host returns the server host.
func (c *Connection) Host() string { return c.host }

// Port returns the server port.
func (c *Connection) Port() int { return c.port }

// Address returns host:port.
func (c *Connection) Address() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Authenticator returns the coordinator owned by this connection.
func (c *Connection) Authenticator() *service.Authenticator { return c.auth }

// SetListener replaces the event listener. A nil listener discards events.
func (c *Connection) SetListener(l Listener) {
	if l == nil {
		l = ListenerFuncs{}
	}
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

func (c *Connection) currentListener() Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listener
}

// Connect dials the server and starts the receive loop.
// Connecting while connected is a no-op. Failures return ErrConnectFailed
// and leave the connection disconnected; there is no retry.
func (c *Connection) Connect(ctx context.Context) (err error) {
	ctx, span := tracer.StartSpan(ctx, "habbo.connection.connect",
		attribute.String("net.peer.name", c.host),
		attribute.Int("net.peer.port", c.port),
		attribute.String("habbo.conn_id", c.id),
	)
	defer func() { tracer.End(span, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link != nil {
		return nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.countConnect(metric.ResultFailure)
		c.log.WithContext(ctx).Warn("connect failed", "error", err)
		return domain.ErrConnectFailed.WithDetails(c.Address()).WithCause(err)
	}

	l := &link{conn: conn, done: make(chan struct{})}
	prev := c.lastLoop
	c.link = l
	c.lastLoop = l.done
	c.loops.Add(1)
	go c.receiveLoop(l, prev)

	c.countConnect(metric.ResultSuccess)
	if c.metrics != nil {
		c.metrics.LinkUp.Set(1)
	}
	c.log.WithContext(ctx).Info("connected", "tls", c.opts.TLSConfig != nil)
	return nil
}

func (c *Connection) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Address())
	if err != nil {
		return nil, err
	}
	if c.opts.TLSConfig == nil {
		return conn, nil
	}

	cfg := c.opts.TLSConfig.Clone()
	if cfg.ServerName == "" && !cfg.InsecureSkipVerify {
		cfg.ServerName = c.host
	}
	tlsConn := tls.Client(conn, cfg)

	hsCtx := ctx
	if c.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		defer cancel()
	}
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Disconnect logs out and closes the socket. It is idempotent and does
// not wait for the receive loop, which then notifies OnDisconnected.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked(c.link, nil)
	return nil
}

// dropLocked moves l to Disconnected: local logout first, then close.
// It reports false when l is not the live link.
func (c *Connection) dropLocked(l *link, cause error) bool {
	if l == nil || c.link != l {
		return false
	}

	if c.authenticated && c.auth.Logout() {
		c.log.Debug("logged out before close")
	}
	c.authenticated = false
	c.link = nil
	l.cause = cause
	_ = l.conn.Close()

	if c.metrics != nil {
		c.metrics.LinkUp.Set(0)
		c.metrics.Disconnects.Inc()
	}
	return true
}

// receiveLoop reads frames until the socket fails or is closed. It is the
// only goroutine that calls the listener for l, and it starts only after
// the previous link's loop has finished notifying.
func (c *Connection) receiveLoop(l *link, prev <-chan struct{}) {
	defer c.loops.Done()
	defer close(l.done)

	if prev != nil {
		<-prev
	}
	c.currentListener().OnConnected()

	for {
		if c.opts.ReadTimeout > 0 {
			_ = l.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		}

		frame, err := protocol.ReadFrame(l.conn, c.opts.MaxFrameSize)
		if err != nil {
			c.mu.Lock()
			c.dropLocked(l, err)
			c.mu.Unlock()
			break
		}

		lst, live := c.liveListener(l)
		if !live {
			break
		}
		if c.metrics != nil {
			c.metrics.FramesReceived.Inc()
			c.metrics.BytesReceived.Add(float64(len(frame)))
		}
		lst.OnMessageReceived(frame)
	}

	c.mu.Lock()
	cause, lst := l.cause, c.listener
	c.mu.Unlock()

	if cause != nil {
		c.log.Warn("connection lost", "error", cause)
		lst.OnError(domain.ErrLinkBroken.WithCause(cause))
	} else {
		c.log.Info("disconnected")
	}
	lst.OnDisconnected()
}

// liveListener returns the listener and whether l is still the live link.
func (c *Connection) liveListener(l *link) (Listener, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listener, c.link == l
}

// failLocked drops l after a write failure. The receive loop reports it.
func (c *Connection) failLocked(l *link, cause error) error {
	c.dropLocked(l, cause)
	return domain.ErrLinkBroken.WithCause(cause)
}

// Send writes payload as one frame. Concurrent sends never interleave.
func (c *Connection) Send(ctx context.Context, payload []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.link
	if l == nil {
		return domain.ErrNotConnected
	}
	if err := c.writeLocked(l, payload); err != nil {
		return c.failLocked(l, err)
	}
	return nil
}

// SendMessage marshals msg and sends it as one frame.
func (c *Connection) SendMessage(ctx context.Context, msg protocol.Message) error {
	payload, err := msg.Marshal()
	if err != nil {
		return err
	}
	return c.Send(ctx, payload)
}

// writeLocked writes one frame on l.
func (c *Connection) writeLocked(l *link, payload []byte) error {
	start := time.Now()
	if c.opts.WriteTimeout > 0 {
		_ = l.conn.SetWriteDeadline(start.Add(c.opts.WriteTimeout))
	}
	if err := protocol.WriteFrame(l.conn, payload); err != nil {
		return err
	}

	if c.metrics != nil {
		c.metrics.FramesSent.Inc()
		c.metrics.BytesSent.Add(float64(len(payload)))
		c.metrics.SendDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// Authenticate logs in and sends an AuthenticationRequest carrying the
// fresh session token. The connection counts as authenticated only after
// the request was written; a failed write revokes the new session.
func (c *Connection) Authenticate(ctx context.Context, username, password string) (err error) {
	ctx, span := tracer.StartSpan(ctx, "habbo.connection.authenticate",
		attribute.String("habbo.conn_id", c.id),
	)
	defer func() { tracer.End(span, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.link
	if l == nil {
		return domain.ErrNotConnected
	}
	if c.authenticated && c.auth.IsAuthenticated() {
		return nil
	}

	if err := c.auth.Authenticate(ctx, username, password); err != nil {
		c.countAuth(metric.ResultFailure)
		return err
	}

	tok := c.auth.CurrentToken()
	req := protocol.NewAuthenticationRequest(tok.Owner, tok.Value)
	req.ClientVersion = c.opts.ClientVersion
	req.ClientIdentifier = c.opts.ClientIdentifier

	payload, err := req.Marshal()
	if err != nil {
		c.auth.Logout()
		c.countAuth(metric.ResultFailure)
		return err
	}

	if werr := c.writeLocked(l, payload); werr != nil {
		c.auth.Logout()
		c.countAuth(metric.ResultFailure)
		return c.failLocked(l, werr)
	}

	c.authenticated = true
	c.countAuth(metric.ResultSuccess)
	c.log.WithContext(ctx).Info("authentication request sent", "user", tok.Owner)
	return nil
}

// Logout ends the local session. It fails with ErrNotAuthenticated when
// no login was sent on this link; the failed-attempt count is kept.
func (c *Connection) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authenticated {
		return domain.ErrNotAuthenticated
	}
	c.auth.Logout()
	c.authenticated = false
	return nil
}

// RefreshToken renews the session token of the current login.
func (c *Connection) RefreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth.RefreshToken(ctx)
}

// applyAuthResponse applies a server answer to the coordinator and clears
// the authenticated flag when the server refused the login.
func (c *Connection) applyAuthResponse(resp *protocol.AuthenticationResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.auth.ApplyResponse(resp)
	if errors.Is(err, domain.ErrAuthRejected) {
		c.authenticated = false
		c.countAuth(metric.ResultRejected)
	}
	return err
}

// IsConnected reports whether the link is up.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link != nil
}

// State returns the link state.
func (c *Connection) State() State {
	if c.IsConnected() {
		return StateConnected
	}
	return StateDisconnected
}

// IsAuthenticated reports whether a login was sent on this link and its
// token is still valid.
func (c *Connection) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated && c.auth.IsAuthenticated()
}

// AuthenticationStatus describes the login state for display.
func (c *Connection) AuthenticationStatus() string {
	return c.auth.Status()
}

// Wait blocks until every receive loop started by this connection exited.
func (c *Connection) Wait() {
	c.loops.Wait()
}

func (c *Connection) countConnect(result string) {
	if c.metrics != nil {
		c.metrics.ConnectsTotal.WithLabelValues(result).Inc()
	}
}

func (c *Connection) countAuth(result string) {
	if c.metrics != nil {
		c.metrics.AuthAttempts.WithLabelValues(result).Inc()
	}
}

func (c *Connection) recordDecodeError(err error) {
	c.log.Warn("undecodable frame", "error", err)
	if c.metrics != nil {
		c.metrics.DecodeErrors.WithLabelValues(decodeErrorCode(err)).Inc()
	}
}
