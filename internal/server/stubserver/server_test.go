package stubserver

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/storage"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

func startTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.MaxFrameSize = 1024
	if mutate != nil {
		mutate(cfg)
	}

	s := New(cfg, logger.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", s.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))
	return c
}

func send(t *testing.T, c net.Conn, msg protocol.Message) {
	t.Helper()
	payload, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := protocol.WriteFrame(c, payload); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
}

func readResponse(t *testing.T, c net.Conn) *protocol.AuthenticationResponse {
	t.Helper()
	frame, err := protocol.ReadFrame(c, 0)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	msg, err := protocol.Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	resp, ok := msg.(*protocol.AuthenticationResponse)
	if !ok {
		t.Fatalf("reply = %T", msg)
	}
	return resp
}

func TestServer_AuthenticationRoundTrip(t *testing.T) {
	seen := make(chan protocol.Message, 4)
	s := startTestServer(t, func(c *Config) {
		c.BannedUsers = []string{"mallory"}
		c.OnMessage = func(_ net.Addr, msg protocol.Message) { seen <- msg }
	})
	c := dial(t, s)

	send(t, c, protocol.NewAuthenticationRequest("xiony", "hbtk_token"))
	resp := readResponse(t, c)
	if !resp.Successful() || resp.UserID != 1000 {
		t.Errorf("response = %+v", resp)
	}

	send(t, c, protocol.NewAuthenticationRequest("mallory", "hbtk_token"))
	if resp := readResponse(t, c); resp.Status != protocol.StatusUserBanned {
		t.Errorf("Status = %v, want USER_BANNED", resp.Status)
	}

	select {
	case msg := <-seen:
		if req, ok := msg.(*protocol.AuthenticationRequest); !ok || req.Username != "xiony" {
			t.Errorf("observed %v", msg)
		}
	case <-time.After(time.Second):
		t.Error("OnMessage not called")
	}
}

func TestServer_SurvivesGarbageFrames(t *testing.T) {
	s := startTestServer(t, nil)
	c := dial(t, s)

	// Unknown id and truncated body are skipped, the link stays up.
	_ = protocol.WriteFrame(c, []byte{0x7F, 0x7F})
	_ = protocol.WriteFrame(c, []byte{0x00, 0x01, 0x00})

	send(t, c, protocol.NewAuthenticationRequest("xiony", "hbtk_token"))
	if resp := readResponse(t, c); !resp.Successful() {
		t.Errorf("response = %+v", resp)
	}
}

// lockedBuffer is a bytes.Buffer safe for the server's goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func TestServer_LogsUnknownAndMalformedFramesApart(t *testing.T) {
	var out lockedBuffer
	log, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &out})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	t.Cleanup(func() { logger.SetLevel("info") })

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	s := New(cfg, log)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	c := dial(t, s)

	_ = protocol.WriteFrame(c, []byte{0x7F, 0x7F})
	_ = protocol.WriteFrame(c, []byte{0x00, 0x01, 0x00})
	send(t, c, protocol.NewAuthenticationRequest("xiony", "hbtk_token"))
	readResponse(t, c)

	var unknown, malformed string
	for _, line := range out.lines() {
		switch {
		case strings.Contains(line, "unknown message ignored"):
			unknown = line
		case strings.Contains(line, "undecodable frame"):
			malformed = line
		}
	}
	if !strings.Contains(unknown, `"level":"DEBUG"`) || !strings.Contains(unknown, `"id":"Message(0x7f7f)"`) {
		t.Errorf("unknown id log = %q", unknown)
	}
	if !strings.Contains(malformed, `"level":"WARN"`) {
		t.Errorf("truncated frame log = %q", malformed)
	}
}

func TestServer_ClosesOnOversizedFrame(t *testing.T) {
	s := startTestServer(t, nil)
	c := dial(t, s)

	_, _ = c.Write([]byte{0x00, 0x01, 0x00, 0x00}) // 65536 > 1024

	if _, err := protocol.ReadFrame(c, 0); err == nil {
		t.Fatal("expected the server to close the connection")
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := startTestServer(t, nil)
	c := dial(t, s)

	deadline := time.Now().Add(2 * time.Second)
	for s.ActiveConnections() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.ActiveConnections() != 1 {
		t.Fatalf("ActiveConnections() = %d, want 1", s.ActiveConnections())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := protocol.ReadFrame(c, 0); err == nil {
		t.Error("client connection should be closed by Shutdown")
	}
	if _, err := net.DialTimeout("tcp", s.Addr().String(), 500*time.Millisecond); err == nil {
		t.Error("listener should be closed after Shutdown")
	}
}

func TestServer_StartFailsOnBusyAddress(t *testing.T) {
	s := startTestServer(t, nil)

	cfg := DefaultConfig()
	cfg.Address = s.Addr().String()
	other := New(cfg, logger.Nop())
	if err := other.Start(context.Background()); err == nil {
		_ = other.Shutdown(context.Background())
		t.Fatal("Start() on a busy address should fail")
	}
}

func TestServer_SessionsEndWithLink(t *testing.T) {
	s := startTestServer(t, nil)
	c := dial(t, s)

	send(t, c, protocol.NewAuthenticationRequest("xiony", "hbtk_abc"))
	resp := readResponse(t, c)
	if !resp.Successful() {
		t.Fatalf("Status = %v", resp.Status)
	}

	sessions := s.Sessions()
	if len(sessions) != 1 || sessions[0].ID != resp.SessionToken || sessions[0].Username != "xiony" {
		t.Fatalf("Sessions() = %+v", sessions)
	}

	c.Close()
	deadline := time.Now().Add(2 * time.Second)
	for len(s.Sessions()) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := len(s.Sessions()); n != 0 {
		t.Errorf("Sessions() after close = %d, want 0", n)
	}
}

func TestServer_PersistentUserIDs(t *testing.T) {
	kvCfg := storage.DefaultKVConfig("")
	kvCfg.InMemory = true
	kv, err := storage.OpenBadger(kvCfg, logger.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	users := storage.NewUserDirectory(kv, 500)

	// Ids survive a server restart when the store does.
	for i := 0; i < 2; i++ {
		s := startTestServer(t, func(c *Config) { c.Users = users })
		c := dial(t, s)

		send(t, c, protocol.NewAuthenticationRequest("xiony", "hbtk_token"))
		if resp := readResponse(t, c); resp.UserID != 500 {
			t.Errorf("run %d: UserID = %d, want 500", i, resp.UserID)
		}
		send(t, c, protocol.NewAuthenticationRequest("other", "hbtk_token"))
		if resp := readResponse(t, c); resp.UserID != 501 {
			t.Errorf("run %d: UserID = %d, want 501", i, resp.UserID)
		}
	}
}
