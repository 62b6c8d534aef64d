package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Executor runs one command line split into words.
type Executor func(ctx context.Context, args []string) error

// ErrExit may be returned by an Executor to end the session.
var ErrExit = errors.New("exit")

// REPL is the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	exec      Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithPrompt sets a prompt function evaluated before each line.
func WithPrompt(prompt func() string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithCompleter sets the completer used for lines ending in "?".
func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		r.completer = c
	}
}

// New creates a REPL running lines through exec.
func New(exec Executor, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		input:     in,
		output:    out,
		prompt:    func() string { return "habbo> " },
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the history store.
func (r *REPL) History() *History {
	return r.history
}

// Run reads lines until EOF, exit/quit, ErrExit or ctx cancellation.
// Command errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(r.output, r.prompt())

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return nil
		case err := <-readErr:
			fmt.Fprintln(r.output)
			return err
		case line = <-lines:
		}

		done, err := r.handle(ctx, strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		if done {
			return nil
		}
	}
}

// handle processes one trimmed line and reports whether to stop.
func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, nil
	}

	if strings.HasSuffix(line, "?") {
		for _, s := range r.completer.Complete(strings.TrimSuffix(line, "?")) {
			fmt.Fprintln(r.output, "  "+s)
		}
		return false, nil
	}

	r.history.Add(line)

	switch line {
	case "exit", "quit":
		return true, nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false, nil
	}

	args, err := Split(line)
	if err != nil {
		return false, err
	}
	if err := r.exec(ctx, args); err != nil {
		if errors.Is(err, ErrExit) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
