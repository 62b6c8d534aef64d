package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/cli/config"
	"github.com/yndnr/habbo-go/internal/cli/connection"
	"github.com/yndnr/habbo-go/internal/cli/output"
	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/infra/buildinfo"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

// App creates the CLI application bound to env.
func App(env *Env) *cli.App {
	app := &cli.App{
		Name:                 "habbo-cli",
		Usage:                "Habbo game protocol client",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		Reader:               env.In,
		Writer:               env.Out,
		ErrWriter:            env.Err,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			ConnectCommand(env),
			DisconnectCommand(env),
			LoginCommand(env),
			LogoutCommand(env),
			RefreshCommand(env),
			StatusCommand(env),
			ConfigCommand(env),
			VersionCommand(env),
		},
		Before: func(c *cli.Context) error {
			return env.setup(c)
		},
		After: func(c *cli.Context) error {
			if !env.interactive {
				env.Close()
			}
			return nil
		},
	}
	app.Commands = append(app.Commands, ShellCommand(env, app))
	app.Action = shellAction(env, app)
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.habbo/cli.yaml when present)",
			EnvVars: []string{"HABBO_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Game server address (e.g., localhost:30000)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Connect over TLS",
		},
		&cli.StringFlag{
			Name:  "tls-ca",
			Usage: "CA bundle used to verify the server",
		},
		&cli.StringFlag{
			Name:  "tls-ca-dir",
			Usage: "Directory of CA certificates used to verify the server",
		},
		&cli.BoolFlag{
			Name:  "tls-insecure",
			Usage: "Skip server certificate verification",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address",
		},
	}
}

// flagOverrides maps the global flags that were set to config keys.
func flagOverrides(c *cli.Context) (map[string]any, error) {
	m := make(map[string]any)
	if c.IsSet("server") {
		host, port, err := ParseAddress(c.String("server"), config.DefaultPort)
		if err != nil {
			return nil, err
		}
		m["server.host"] = host
		m["server.port"] = port
	}
	if c.IsSet("output") {
		m["output.format"] = c.String("output")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	if c.IsSet("tls") {
		m["tls.enabled"] = c.Bool("tls")
	}
	if c.IsSet("tls-ca") {
		m["tls.ca_file"] = c.String("tls-ca")
	}
	if c.IsSet("tls-ca-dir") {
		m["tls.ca_dir"] = c.String("tls-ca-dir")
	}
	if c.IsSet("tls-insecure") {
		m["tls.insecure"] = c.Bool("tls-insecure")
	}
	if c.IsSet("metrics-addr") {
		m["metrics.addr"] = c.String("metrics-addr")
	}
	return m, nil
}

// setup loads configuration and builds the shared state on the first
// invocation. Lines run from the shell only pick up a per-line --output.
func (e *Env) setup(c *cli.Context) error {
	if e.ready {
		e.format = output.Format(e.Config.Output.Format)
		if c.IsSet("output") {
			f, err := output.ParseFormat(c.String("output"))
			if err != nil {
				return err
			}
			e.format = f
		}
		return nil
	}

	flags, err := flagOverrides(c)
	if err != nil {
		return err
	}
	cfg, path, err := config.Load(config.LoadOptions{
		File:  c.String("config"),
		Flags: flags,
	})
	if err != nil {
		return err
	}
	e.Config = cfg
	e.ConfigPath = path
	e.Flags = flags
	e.format = output.Format(cfg.Output.Format)

	log, err := logger.New(cfg.LoggerConfig(e.Err))
	if err != nil {
		return err
	}
	logger.SetDefault(log)
	e.Logger = log

	connOpts, err := cfg.ConnectionOptions()
	if err != nil {
		return err
	}
	e.Metrics = metric.NewRegistry()
	connOpts = append(connOpts,
		connection.WithLogger(log),
		connection.WithMetrics(e.Metrics),
	)
	e.Manager = connection.NewManager(connOpts...)
	e.Metrics.MustRegister(metric.NewSessionCollector(e.Manager.SessionSource))

	if cfg.Metrics.Addr != "" {
		e.startMetrics(cfg.Metrics.Addr)
	}

	e.ready = true
	return nil
}

func (e *Env) startMetrics(addr string) {
	ctx, cancel := context.WithCancel(context.Background())
	e.stopMetrics = cancel
	e.metricsDone = make(chan struct{})
	go func() {
		defer close(e.metricsDone)
		if err := e.Metrics.Serve(ctx, addr); err != nil {
			e.Logger.Error("metrics endpoint stopped", "address", addr, "error", err)
		}
	}()
	e.Logger.Info("serving metrics", "address", addr)
}

// ParseAddress splits "host[:port]", defaulting the port.
func ParseAddress(s string, defaultPort int) (string, int, error) {
	if s == "" {
		return "", 0, domain.ErrInvalidArgument.WithDetails("empty server address")
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && addrErr.Err == "missing port in address" {
			return s, defaultPort, nil
		}
		return "", 0, domain.ErrInvalidArgument.WithDetailsf("server address %q", s).WithCause(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, domain.ErrInvalidArgument.WithDetailsf("invalid port %q", portStr)
	}
	if host == "" {
		host = config.DefaultHost
	}
	return host, port, nil
}

// ensureConnected returns the current connection. Outside the shell it
// connects to the configured server first.
func (e *Env) ensureConnected(c *cli.Context) (*connection.Connection, error) {
	if cur := e.Manager.Current(); cur != nil && cur.IsConnected() {
		return cur, nil
	}
	if e.interactive {
		return nil, domain.ErrNotConnected.WithDetails("use connect <host:port> first")
	}
	return e.connect(c.Context, e.Config.Server.Host, e.Config.Server.Port)
}

func (e *Env) connect(ctx context.Context, host string, port int) (*connection.Connection, error) {
	conn, err := e.Manager.Connect(ctx, host, port)
	if err != nil {
		return nil, err
	}
	conn.SetListener(e.listener(conn))
	return conn, nil
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
