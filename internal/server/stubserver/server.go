package stubserver

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// Config holds the stub server configuration.
type Config struct {
	// Address is the listen address.
	Address string
	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config
	// IdleTimeout closes connections silent for this long (0 = never).
	IdleTimeout time.Duration
	// WriteTimeout bounds each response write.
	WriteTimeout time.Duration
	// MaxFrameSize bounds inbound frames.
	MaxFrameSize int
	// FirstUserID is the id assigned to the first successful login.
	FirstUserID int32
	// BannedUsers receive USER_BANNED.
	BannedUsers []string
	// Users assigns user ids; nil keeps them in memory from FirstUserID.
	Users UserStore
	// OnMessage observes every decoded inbound message; may be nil.
	OnMessage func(remote net.Addr, msg protocol.Message)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:30000",
		IdleTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Second,
		MaxFrameSize: protocol.DefaultMaxFrameSize,
		FirstUserID:  1000,
	}
}

// Server is a loopback game server.
type Server struct {
	cfg     *Config
	handler *Handler
	logger  logger.Logger

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// New creates a stub server. A nil cfg selects DefaultConfig.
func New(cfg *Config, l logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: newHandler(cfg),
		logger:  l.With("component", "stubserver"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens on the configured address and serves in the background.
// The listener is bound when Start returns, so Addr is usable immediately.
func (s *Server) Start(ctx context.Context) error {
	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", s.cfg.Address, s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", s.cfg.Address)
	}
	if err != nil {
		return err
	}

	s.ln = ln
	s.running.Store(true)
	s.logger.Info("stub server listening", "address", ln.Addr().String(), "tls", s.cfg.TLSConfig != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes open connections and waits for the
// serving goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	s.connsMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

// Sessions returns the logins accepted on links that are still open.
func (s *Server) Sessions() []Session {
	return s.handler.Sessions()
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.track(c, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(c, false)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c net.Conn, add bool) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	remote := c.RemoteAddr()
	log := s.logger.With("remote", remote.String())
	log.Debug("client connected")

	var sessions []string
	defer func() {
		if n := s.handler.EndSessions(sessions...); n > 0 {
			log.Debug("sessions closed with link", "count", n)
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if s.cfg.IdleTimeout > 0 {
			if err := c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}

		frame, err := protocol.ReadFrame(c, s.cfg.MaxFrameSize)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				log.Debug("client disconnected")
			case errors.As(err, &netErr) && netErr.Timeout():
				log.Debug("connection timed out")
			case errors.Is(err, domain.ErrFrameTooLarge):
				log.Warn("frame limit exceeded", "error", err)
			default:
				log.Debug("connection read error", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			if id, perr := protocol.PeekID(frame); perr == nil && !protocol.Known(id) {
				log.Debug("unknown message ignored", "id", id.String())
			} else {
				log.Warn("undecodable frame", "error", err, "bytes", len(frame))
			}
			continue
		}
		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(remote, msg)
		}

		reply := s.handler.Handle(ctx, msg)
		if reply == nil {
			continue
		}
		if resp, ok := reply.(*protocol.AuthenticationResponse); ok && resp.Successful() {
			sessions = append(sessions, resp.SessionToken)
			log.Info("login accepted", "user_id", resp.UserID)
		}
		payload, err := reply.Marshal()
		if err != nil {
			log.Error("marshal reply failed", "error", err)
			return
		}
		if s.cfg.WriteTimeout > 0 {
			if err := c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
		}
		if err := protocol.WriteFrame(c, payload); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
		log.Debug("replied", "request", msg.ID().String(), "reply", reply.ID().String())
	}
}

func newHandler(cfg *Config) *Handler {
	if cfg.Users != nil {
		return NewHandlerWithStore(cfg.Users, cfg.BannedUsers)
	}
	return NewHandler(cfg.FirstUserID, cfg.BannedUsers)
}
