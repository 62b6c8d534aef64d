package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/cli/config"
	"github.com/yndnr/habbo-go/internal/cli/repl"
	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/infra/buildinfo"
	"github.com/yndnr/habbo-go/internal/infra/confloader"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// ShellCommand returns the shell command.
func ShellCommand(env *Env, app *cli.App) *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start the interactive shell (default)",
		Action: shellAction(env, app),
	}
}

func shellAction(env *Env, app *cli.App) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() > 0 {
			return domain.ErrInvalidArgument.WithDetailsf("unknown command %q", c.Args().First())
		}
		if env.interactive {
			return domain.ErrInvalidArgument.WithDetails("already in the shell")
		}
		return env.runShell(c.Context, app)
	}
}

// runShell reads commands until exit, EOF or ctx cancellation. Each line
// is dispatched through app.
func (e *Env) runShell(ctx context.Context, app *cli.App) error {
	e.interactive = true
	defer func() { e.interactive = false }()

	history := repl.NewHistory(e.Config.Output.HistoryFile)
	if err := history.Load(); err != nil {
		e.Logger.Warn("failed to load history", "file", e.Config.Output.HistoryFile, "error", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			e.Logger.Warn("failed to save history", "file", e.Config.Output.HistoryFile, "error", err)
		}
	}()

	stopWatch := e.watchConfig(ctx)
	defer stopWatch()

	exec := func(ctx context.Context, args []string) error {
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	}
	r := repl.New(exec, e.In, e.Out,
		repl.WithPrompt(e.prompt),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(commandNames(app)...)),
	)

	fmt.Fprintf(e.Out, "habbo-cli %s. Type 'help' for commands, 'exit' to quit.\n", buildinfo.Version)
	return r.Run(ctx)
}

func (e *Env) prompt() string {
	conn := e.Manager.Current()
	if conn == nil || !conn.IsConnected() {
		return "habbo> "
	}
	if user := conn.Authenticator().CurrentUsername(); user != "" {
		return fmt.Sprintf("habbo(%s@%s)> ", user, conn.Address())
	}
	return fmt.Sprintf("habbo(%s)> ", conn.Address())
}

// watchConfig applies log level changes made to the loaded config file
// while the shell runs.
func (e *Env) watchConfig(ctx context.Context) func() {
	if e.ConfigPath == "" {
		return func() {}
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(e.Logger))
	if err != nil {
		e.Logger.Warn("config watch disabled", "error", err)
		return func() {}
	}
	if err := w.Watch(e.ConfigPath); err != nil {
		e.Logger.Warn("config watch disabled", "file", e.ConfigPath, "error", err)
		_ = w.Stop()
		return func() {}
	}

	w.OnChange(func(path string) {
		cfg, _, err := config.Load(config.LoadOptions{File: path, Flags: e.Flags})
		if err != nil {
			e.Logger.Warn("config reload failed", "file", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.Level() {
			logger.SetLevel(cfg.Log.Level)
			e.Logger.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync(ctx)

	return func() { _ = w.Stop() }
}

func commandNames(app *cli.App) []string {
	names := []string{"help"}
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}
		names = append(names, cmd.Name)
	}
	return names
}
