package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/core/service"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/server/stubserver"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

const eventTimeout = 2 * time.Second

// recorder is a Listener that records every event in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	frames [][]byte
	errs   []error
	notify chan string
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan string, 64)}
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.notify <- ev
}

func (r *recorder) OnConnected()    { r.add("connected") }
func (r *recorder) OnDisconnected() { r.add("disconnected") }

func (r *recorder) OnMessageReceived(frame []byte) {
	r.mu.Lock()
	r.frames = append(r.frames, append([]byte(nil), frame...))
	r.mu.Unlock()
	r.add("message")
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.add("error")
}

func (r *recorder) await(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case ev := <-r.notify:
			if ev == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q, got %v", want, r.snapshot())
		}
	}
}

func (r *recorder) count(ev string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e == ev {
			n++
		}
	}
	return n
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// orderListener counts callbacks that overlap each other or arrive after
// OnDisconnected.
type orderListener struct {
	active      atomic.Int32
	overlaps    atomic.Int32
	late        atomic.Int32
	messages    atomic.Int32
	errs        atomic.Int32
	disconnects atomic.Int32
	first       chan struct{}
}

func newOrderListener() *orderListener {
	return &orderListener{first: make(chan struct{})}
}

func (o *orderListener) enter() {
	if o.active.Add(1) > 1 {
		o.overlaps.Add(1)
	}
	runtime.Gosched()
}

func (o *orderListener) leave() { o.active.Add(-1) }

func (o *orderListener) OnConnected() { o.enter(); o.leave() }

func (o *orderListener) OnDisconnected() {
	o.enter()
	defer o.leave()
	o.disconnects.Add(1)
}

func (o *orderListener) OnError(error) {
	o.enter()
	defer o.leave()
	o.errs.Add(1)
}

func (o *orderListener) OnMessageReceived([]byte) {
	o.enter()
	defer o.leave()
	if o.disconnects.Load() > 0 {
		o.late.Add(1)
	}
	if o.messages.Add(1) == 1 {
		close(o.first)
	}
}

// peer is a raw loopback server accepting a single client.
type peer struct {
	ln    net.Listener
	conns chan net.Conn
}

func newPeer(t *testing.T) *peer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := &peer{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			p.conns <- c
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return p
}

func (p *peer) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(p.ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (p *peer) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-p.conns:
		t.Cleanup(func() { c.Close() })
		_ = c.SetDeadline(time.Now().Add(5 * time.Second))
		return c
	case <-time.After(eventTimeout):
		t.Fatal("peer did not accept")
		return nil
	}
}

func connectTo(t *testing.T, p *peer, opts ...Option) *Connection {
	t.Helper()
	host, port := p.hostPort(t)
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	c := New(host, port, opts...)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() {
		_ = c.Disconnect()
		c.Wait()
	})
	return c
}

func TestConnect_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	reg := metric.NewRegistry()
	c := New("127.0.0.1", addr.Port, WithLogger(logger.Nop()), WithMetrics(reg), WithDialTimeout(time.Second))

	err = c.Connect(context.Background())
	if !errors.Is(err, domain.ErrConnectFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectFailed", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("ErrConnectFailed should carry the dial error")
	}
	if c.IsConnected() || c.State() != StateDisconnected {
		t.Error("failed connect should leave the connection disconnected")
	}
	if got := testutil.ToFloat64(reg.ConnectsTotal.WithLabelValues(metric.ResultFailure)); got != 1 {
		t.Errorf("connects{failure} = %v, want 1", got)
	}
}

func TestSend_NotConnected(t *testing.T) {
	c := New("127.0.0.1", 1, WithLogger(logger.Nop()))

	if err := c.Send(context.Background(), []byte{0, 1}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
	if err := c.Authenticate(context.Background(), "xiony", "pw"); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("Authenticate() error = %v, want ErrNotConnected", err)
	}
	if c.Authenticator().LoginAttempts() != 0 {
		t.Error("Authenticate while disconnected should not consume an attempt")
	}
	if err := c.Disconnect(); err != nil {
		t.Errorf("Disconnect() on idle connection error = %v", err)
	}
}

func TestConnection_SendAndReceive(t *testing.T) {
	p := newPeer(t)
	rec := newRecorder()
	c := connectTo(t, p, WithListener(rec))
	srv := p.accept(t)

	rec.await(t, "connected")
	if !c.IsConnected() || c.State() != StateConnected {
		t.Fatal("connection should be up")
	}

	if err := c.Send(context.Background(), []byte("ping")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := protocol.ReadFrame(srv, 0)
	if err != nil || string(got) != "ping" {
		t.Fatalf("peer read %q, %v", got, err)
	}

	for _, payload := range []string{"one", "two", "three"} {
		if err := protocol.WriteFrame(srv, []byte(payload)); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	for range 3 {
		rec.await(t, "message")
	}

	rec.mu.Lock()
	frames := rec.frames
	rec.mu.Unlock()
	want := []string{"one", "two", "three"}
	for i, f := range frames {
		if string(f) != want[i] {
			t.Errorf("frame %d = %q, want %q", i, f, want[i])
		}
	}
}

func TestConnection_PeerClose(t *testing.T) {
	p := newPeer(t)
	rec := newRecorder()
	reg := metric.NewRegistry()
	c := connectTo(t, p, WithListener(rec), WithMetrics(reg))
	srv := p.accept(t)
	rec.await(t, "connected")

	srv.Close()
	rec.await(t, "disconnected")

	if c.IsConnected() {
		t.Error("connection should be down after peer close")
	}

	// A later Disconnect must not notify again.
	_ = c.Disconnect()
	c.Wait()

	events := rec.snapshot()
	if rec.count("error") != 1 || rec.count("disconnected") != 1 {
		t.Fatalf("events = %v, want exactly one error and one disconnected", events)
	}
	if events[len(events)-2] != "error" {
		t.Errorf("events = %v, OnError should precede OnDisconnected", events)
	}
	if !errors.Is(rec.errs[0], domain.ErrLinkBroken) {
		t.Errorf("OnError(%v), want ErrLinkBroken", rec.errs[0])
	}
	if got := testutil.ToFloat64(reg.LinkUp); got != 0 {
		t.Errorf("link_up = %v, want 0", got)
	}
}

func TestConnection_DisconnectIdempotent(t *testing.T) {
	p := newPeer(t)
	rec := newRecorder()
	c := connectTo(t, p, WithListener(rec))
	p.accept(t)
	rec.await(t, "connected")

	for range 3 {
		if err := c.Disconnect(); err != nil {
			t.Fatalf("Disconnect() error = %v", err)
		}
	}
	c.Wait()

	if n := rec.count("disconnected"); n != 1 {
		t.Errorf("OnDisconnected fired %d times, want 1", n)
	}
	if n := rec.count("error"); n != 0 {
		t.Errorf("local disconnect should not report an error, got %v", rec.errs)
	}
}

func TestConnection_NoEventsAfterDisconnected(t *testing.T) {
	frame, err := (&protocol.AuthenticationResponse{Status: protocol.StatusSuccess, UserID: 1000}).Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	p := newPeer(t)
	host, port := p.hostPort(t)

	for run := range 50 {
		ol := newOrderListener()
		c := New(host, port, WithLogger(logger.Nop()))
		c.SetListener(NewMessageHandler(c, ol))
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("run %d: Connect() error = %v", run, err)
		}
		srv := p.accept(t)

		flooded := make(chan struct{})
		go func() {
			defer close(flooded)
			for protocol.WriteFrame(srv, frame) == nil {
			}
		}()

		select {
		case <-ol.first:
		case <-time.After(eventTimeout):
			t.Fatalf("run %d: no frame delivered", run)
		}
		_ = c.Disconnect()
		c.Wait()
		srv.Close()
		<-flooded

		if n := ol.late.Load(); n != 0 {
			t.Errorf("run %d: %d frames delivered after OnDisconnected", run, n)
		}
		if n := ol.overlaps.Load(); n != 0 {
			t.Errorf("run %d: %d overlapping callbacks", run, n)
		}
		if n := ol.disconnects.Load(); n != 1 {
			t.Errorf("run %d: OnDisconnected fired %d times, want 1", run, n)
		}
		if n := ol.errs.Load(); n != 0 {
			t.Errorf("run %d: local disconnect reported %d errors", run, n)
		}
	}
}

func TestConnection_ConcurrentSendKeepsFramesWhole(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p)
	srv := p.accept(t)

	const senders, perSender = 8, 50
	payload := func(g, i int) string {
		// Lengths vary so a torn frame would misalign the next length prefix.
		return fmt.Sprintf("%d/%d/%s", g, i, strings.Repeat("x", (g*perSender+i)%300))
	}
	want := make(map[string]bool, senders*perSender)
	for g := range senders {
		for i := range perSender {
			want[payload(g, i)] = true
		}
	}

	received := make(chan error, 1)
	go func() {
		seen := make(map[string]bool, len(want))
		for len(seen) < len(want) {
			frame, err := protocol.ReadFrame(srv, 0)
			if err != nil {
				received <- err
				return
			}
			got := string(frame)
			if !want[got] || seen[got] {
				received <- fmt.Errorf("unexpected frame %.40q", got)
				return
			}
			seen[got] = true
		}
		received <- nil
	}()

	var wg sync.WaitGroup
	for g := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perSender {
				if err := c.Send(context.Background(), []byte(payload(g, i))); err != nil {
					t.Errorf("Send() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-received:
		if err != nil {
			t.Fatalf("peer: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("peer did not receive every frame")
	}
}

func TestConnection_Reconnect(t *testing.T) {
	p := newPeer(t)
	rec := newRecorder()
	c := connectTo(t, p, WithListener(rec))
	p.accept(t)
	rec.await(t, "connected")

	_ = c.Disconnect()
	rec.await(t, "disconnected")

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	p.accept(t)
	rec.await(t, "connected")

	if !c.IsConnected() {
		t.Error("reconnected link should be up")
	}
	if n := rec.count("disconnected"); n != 1 {
		t.Errorf("stale loop should not notify, disconnected = %d", n)
	}
}

func TestConnection_AuthenticateSendsRequest(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p, WithClientInfo("2.0.0", "test-client"))
	srv := p.accept(t)

	if err := c.Authenticate(context.Background(), "xiony", "password123"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !c.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after Authenticate")
	}

	frame, err := protocol.ReadFrame(srv, 0)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	msg, err := protocol.Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	req, ok := msg.(*protocol.AuthenticationRequest)
	if !ok {
		t.Fatalf("message = %T", msg)
	}
	if req.Username != "xiony" || req.ClientVersion != "2.0.0" || req.ClientIdentifier != "test-client" {
		t.Errorf("request = %+v", req)
	}
	if req.SSOToken != c.Authenticator().CurrentToken().Value {
		t.Error("request should carry the current session token")
	}

	// A second login while authenticated sends nothing.
	if err := c.Authenticate(context.Background(), "xiony", "password123"); err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}
	_ = srv.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := protocol.ReadFrame(srv, 0); err == nil {
		t.Error("second Authenticate should not send another request")
	}
}

func TestConnection_AuthenticateInvalidCredentials(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p)
	p.accept(t)

	for i := range 3 {
		if err := c.Authenticate(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: error = %v, want ErrInvalidCredentials", i, err)
		}
	}
	if err := c.Authenticate(context.Background(), "xiony", "pw"); !errors.Is(err, domain.ErrAttemptsExceeded) {
		t.Fatalf("error = %v, want ErrAttemptsExceeded", err)
	}
	if c.IsAuthenticated() {
		t.Error("should not be authenticated")
	}
}

func TestConnection_SpentAttemptsSurvive(t *testing.T) {
	tests := []struct {
		name  string
		reset func(t *testing.T, c *Connection, p *peer)
	}{
		{
			name: "logout",
			reset: func(t *testing.T, c *Connection, _ *peer) {
				if err := c.Logout(); !errors.Is(err, domain.ErrNotAuthenticated) {
					t.Fatalf("Logout() error = %v, want ErrNotAuthenticated", err)
				}
			},
		},
		{
			name: "reconnect",
			reset: func(t *testing.T, c *Connection, p *peer) {
				_ = c.Disconnect()
				c.Wait()
				if err := c.Connect(context.Background()); err != nil {
					t.Fatalf("Connect() error = %v", err)
				}
				p.accept(t)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPeer(t)
			c := connectTo(t, p)
			p.accept(t)

			for range service.DefaultMaxLoginAttempts {
				if err := c.Authenticate(context.Background(), " ", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
					t.Fatalf("Authenticate() error = %v, want ErrInvalidCredentials", err)
				}
			}

			tt.reset(t, c, p)

			if got := c.Authenticator().LoginAttempts(); got != service.DefaultMaxLoginAttempts {
				t.Errorf("LoginAttempts() = %d, want %d", got, service.DefaultMaxLoginAttempts)
			}
			if err := c.Authenticate(context.Background(), "xiony", "pw"); !errors.Is(err, domain.ErrAttemptsExceeded) {
				t.Fatalf("Authenticate() error = %v, want ErrAttemptsExceeded", err)
			}
			if c.IsAuthenticated() {
				t.Error("should not be authenticated")
			}
		})
	}
}

func TestConnection_DisconnectLogsOut(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p)
	p.accept(t)

	if err := c.Authenticate(context.Background(), "xiony", "pw"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	_ = c.Disconnect()

	if c.IsAuthenticated() || c.Authenticator().IsAuthenticated() {
		t.Error("Disconnect should end the session")
	}
	if c.AuthenticationStatus() != "Not authenticated" {
		t.Errorf("status = %q", c.AuthenticationStatus())
	}
}

func TestConnection_Logout(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p)
	p.accept(t)

	if err := c.Logout(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Logout() without session error = %v, want ErrNotAuthenticated", err)
	}
	if err := c.Authenticate(context.Background(), "xiony", "pw"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if err := c.Logout(); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
	if c.IsAuthenticated() {
		t.Error("still authenticated after Logout")
	}
	if !c.IsConnected() {
		t.Error("Logout should keep the link up")
	}
}

func TestConnection_RefreshToken(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p)
	p.accept(t)

	if err := c.RefreshToken(context.Background()); !errors.Is(err, domain.ErrNoValidToken) {
		t.Errorf("RefreshToken() without session error = %v, want ErrNoValidToken", err)
	}

	_ = c.Authenticate(context.Background(), "xiony", "pw")
	before := c.Authenticator().CurrentToken().Value
	if err := c.RefreshToken(context.Background()); err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if c.Authenticator().CurrentToken().Value == before {
		t.Error("RefreshToken should replace the token value")
	}
}

func TestConnection_SendRateLimited(t *testing.T) {
	p := newPeer(t)
	c := connectTo(t, p, WithSendRate(1, 1))
	p.accept(t)

	if err := c.Send(context.Background(), []byte("a")); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Send(ctx, []byte("b")); err == nil {
		t.Error("second Send() within the window should wait past the deadline")
	}
}

func startStub(t *testing.T, banned ...string) (string, int) {
	t.Helper()
	cfg := stubserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.BannedUsers = banned
	s := stubserver.New(cfg, logger.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("stub Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	addr := s.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestEndToEnd_LoginAgainstStub(t *testing.T) {
	host, port := startStub(t)

	results := make(chan *protocol.AuthenticationResponse, 1)
	c := New(host, port, WithLogger(logger.Nop()))
	h := NewMessageHandler(c, nil)
	h.OnAuthResult = func(resp *protocol.AuthenticationResponse, err error) {
		if err != nil {
			t.Errorf("ApplyResponse() error = %v", err)
		}
		results <- resp
	}
	c.SetListener(h)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer func() {
		_ = c.Disconnect()
		c.Wait()
	}()

	if err := c.Authenticate(context.Background(), "xiony", "password123"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	select {
	case resp := <-results:
		if !resp.Successful() {
			t.Fatalf("response = %+v", resp)
		}
	case <-time.After(eventTimeout):
		t.Fatal("no authentication response")
	}

	status := c.AuthenticationStatus()
	if !strings.HasPrefix(status, "Authenticated as: xiony") || !strings.Contains(status, "Token expires in 2") {
		t.Errorf("status = %q", status)
	}
	if c.Authenticator().CurrentToken().UserID != 1000 {
		t.Errorf("UserID = %d, want 1000", c.Authenticator().CurrentToken().UserID)
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if c.AuthenticationStatus() != "Not authenticated" {
		t.Errorf("status after logout = %q", c.AuthenticationStatus())
	}
}

func TestEndToEnd_BannedUser(t *testing.T) {
	host, port := startStub(t, "mallory")

	reg := metric.NewRegistry()
	results := make(chan error, 1)
	c := New(host, port, WithLogger(logger.Nop()), WithMetrics(reg))
	h := NewMessageHandler(c, nil)
	h.OnAuthResult = func(_ *protocol.AuthenticationResponse, err error) { results <- err }
	c.SetListener(h)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer func() {
		_ = c.Disconnect()
		c.Wait()
	}()

	if err := c.Authenticate(context.Background(), "mallory", "pw"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	select {
	case err := <-results:
		if !errors.Is(err, domain.ErrAuthRejected) {
			t.Fatalf("ApplyResponse() error = %v, want ErrAuthRejected", err)
		}
		if !strings.Contains(err.Error(), "USER_BANNED") {
			t.Errorf("error = %v, want the status name", err)
		}
	case <-time.After(eventTimeout):
		t.Fatal("no authentication response")
	}

	if c.IsAuthenticated() {
		t.Error("rejected login should clear the session")
	}
	if c.Authenticator().LoginAttempts() != 1 {
		t.Errorf("LoginAttempts() = %d, want 1", c.Authenticator().LoginAttempts())
	}
	if got := testutil.ToFloat64(reg.AuthAttempts.WithLabelValues(metric.ResultRejected)); got != 1 {
		t.Errorf("auth_attempts{rejected} = %v, want 1", got)
	}
	if !c.IsConnected() {
		t.Error("a rejection should not drop the link")
	}
}

func TestNew_AuthOptions(t *testing.T) {
	c := New("127.0.0.1", 1, WithLogger(logger.Nop()), WithAuthOptions(service.WithMaxAttempts(5)))
	if got := c.Authenticator().MaxAttempts(); got != 5 {
		t.Errorf("MaxAttempts() = %d, want 5", got)
	}

	shared := service.NewAuthenticator()
	c = New("127.0.0.1", 1, WithLogger(logger.Nop()), WithAuthenticator(shared))
	if c.Authenticator() != shared {
		t.Error("WithAuthenticator should be used as is")
	}
	if c.Address() != "127.0.0.1:1" {
		t.Errorf("Address() = %q", c.Address())
	}
}
