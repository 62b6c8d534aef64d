package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/yndnr/habbo-go/internal/cli/config"
	"github.com/yndnr/habbo-go/internal/cli/connection"
	"github.com/yndnr/habbo-go/internal/cli/output"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

// Env is the state shared by every command of one habbo-cli process.
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Config     *config.CLIConfig
	ConfigPath string
	Flags      map[string]any

	Logger  logger.Logger
	Metrics *metric.Registry
	Manager *connection.Manager

	format      output.Format
	outTTY      bool
	interactive bool
	ready       bool

	stopMetrics context.CancelFunc
	metricsDone chan struct{}

	mu      sync.Mutex
	pending chan authResult
	closed  bool
}

// authResult is the server's answer to a login.
type authResult struct {
	resp *protocol.AuthenticationResponse
	err  error
}

// NewEnv creates an environment writing to out and errOut.
func NewEnv(in io.Reader, out, errOut io.Writer) *Env {
	return &Env{
		In:     in,
		Out:    &syncWriter{w: out},
		Err:    &syncWriter{w: errOut},
		outTTY: isTerminal(out),
		format: output.FormatText,
	}
}

// Formatter returns the formatter for the current invocation.
func (e *Env) Formatter() output.Formatter {
	return output.NewFormatter(e.format)
}

// Print formats data to Out.
func (e *Env) Print(data any) error {
	return e.Formatter().Format(e.Out, data)
}

// Printf writes a line to Out.
func (e *Env) Printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format+"\n", args...)
}

// Interactive reports whether a shell is running.
func (e *Env) Interactive() bool {
	return e.interactive
}

// Close disconnects and stops the metrics endpoint. It is safe to call
// more than once.
func (e *Env) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	if e.Manager != nil {
		e.Manager.Close()
	}
	if e.stopMetrics != nil {
		e.stopMetrics()
		<-e.metricsDone
	}
}

// listener builds the event listener attached to every new connection.
func (e *Env) listener(conn *connection.Connection) connection.Listener {
	h := connection.NewMessageHandler(conn, connection.ListenerFuncs{
		Error: func(err error) {
			e.Logger.Warn("connection error", "error", err)
		},
		Disconnected: func() {
			if e.interactive {
				fmt.Fprintf(e.Out, "\nDisconnected from %s\n", conn.Address())
			}
		},
	})
	h.OnAuthResult = func(resp *protocol.AuthenticationResponse, err error) {
		e.deliverAuthResult(authResult{resp: resp, err: err})
	}
	return h
}

// expectAuthResult routes the next server answer to the returned channel
// instead of printing it.
func (e *Env) expectAuthResult() <-chan authResult {
	ch := make(chan authResult, 1)
	e.mu.Lock()
	e.pending = ch
	e.mu.Unlock()
	return ch
}

func (e *Env) clearPending() {
	e.mu.Lock()
	e.pending = nil
	e.mu.Unlock()
}

func (e *Env) deliverAuthResult(r authResult) {
	e.mu.Lock()
	ch := e.pending
	e.pending = nil
	e.mu.Unlock()

	if ch != nil {
		ch <- r
		return
	}
	if r.err != nil {
		fmt.Fprintf(e.Out, "\nLogin rejected: %v\n", r.err)
		return
	}
	fmt.Fprintf(e.Out, "\nServer accepted login (user id %d)\n", r.resp.UserID)
}

// syncWriter serializes writes from command actions and the receive goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
