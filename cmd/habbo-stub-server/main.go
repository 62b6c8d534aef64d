package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/habbo-go/internal/infra/buildinfo"
	"github.com/yndnr/habbo-go/internal/infra/shutdown"
	"github.com/yndnr/habbo-go/internal/infra/tlsroots"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/server/stubserver"
	"github.com/yndnr/habbo-go/internal/storage"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	def := stubserver.DefaultConfig()
	return &cli.App{
		Name:    "habbo-stub-server",
		Usage:   "Loopback game server answering authentication requests",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Listen address",
				Value:   def.Address,
				EnvVars: []string{"HABBO_STUB_LISTEN"},
			},
			&cli.StringSliceFlag{
				Name:  "banned",
				Usage: "Usernames answered with USER_BANNED (repeatable)",
			},
			&cli.IntFlag{
				Name:  "first-user-id",
				Usage: "User id assigned to the first successful login",
				Value: int(def.FirstUserID),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Persist assigned user ids in this directory (in memory when empty)",
				EnvVars: []string{"HABBO_STUB_DATA_DIR"},
			},
			&cli.DurationFlag{
				Name:  "idle-timeout",
				Usage: "Close links idle for this long (0 disables)",
				Value: def.IdleTimeout,
			},
			&cli.IntFlag{
				Name:  "max-frame-size",
				Usage: "Largest accepted frame in bytes",
				Value: protocol.DefaultMaxFrameSize,
			},
			&cli.StringFlag{
				Name:  "tls-cert",
				Usage: "Serve TLS with this certificate (requires --tls-key)",
			},
			&cli.StringFlag{
				Name:  "tls-key",
				Usage: "Private key for --tls-cert",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text, json",
				Value: "text",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "users",
				Usage:  "List the user ids persisted in --data-dir",
				Action: listUsers,
			},
		},
		Action: serve,
	}
}

func listUsers(c *cli.Context) error {
	dir := c.String("data-dir")
	if dir == "" {
		return errors.New("users: --data-dir is required")
	}

	cfg := storage.DefaultKVConfig(dir)
	cfg.GCInterval = 0
	kv, err := storage.OpenBadger(cfg, logger.Nop())
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	defer kv.Close()

	users, err := storage.NewUserDirectory(kv, 0).Users(c.Context)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tUSER ID")
	for _, name := range slices.Sorted(maps.Keys(users)) {
		fmt.Fprintf(w, "%s\t%d\n", name, users[name])
	}
	return w.Flush()
}

func serve(c *cli.Context) error {
	log, err := logger.New(logger.Config{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	cfg := stubserver.DefaultConfig()
	cfg.Address = c.String("listen")
	cfg.BannedUsers = c.StringSlice("banned")
	cfg.FirstUserID = int32(c.Int("first-user-id"))
	cfg.IdleTimeout = c.Duration("idle-timeout")
	cfg.MaxFrameSize = c.Int("max-frame-size")
	cfg.OnMessage = func(remote net.Addr, msg protocol.Message) {
		log.Debug("message", "remote", remote.String(), "id", msg.ID().String())
	}

	if cert, key := c.String("tls-cert"), c.String("tls-key"); cert != "" || key != "" {
		tlsCfg, err := tlsroots.ServerConfig(cert, key)
		if err != nil {
			return fmt.Errorf("tls: %w", err)
		}
		cfg.TLSConfig = tlsCfg
	}

	var kv *storage.BadgerEngine
	if dir := c.String("data-dir"); dir != "" {
		kv, err = storage.OpenBadger(storage.DefaultKVConfig(dir), log)
		if err != nil {
			return fmt.Errorf("open data dir: %w", err)
		}
		cfg.Users = storage.NewUserDirectory(kv, cfg.FirstUserID)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	srv := stubserver.New(cfg, log)
	if err := srv.Start(ctx); err != nil {
		if kv != nil {
			_ = kv.Close()
		}
		return fmt.Errorf("start: %w", err)
	}

	sh := shutdown.NewHandler(10 * time.Second)
	if kv != nil {
		// Registered first so it runs after the server has stopped.
		sh.OnShutdown(func(context.Context) error {
			return kv.Close()
		})
	}
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down stub server")
		return srv.Shutdown(ctx)
	})

	if addr := c.String("metrics-addr"); addr != "" {
		reg := metric.NewRegistry()
		reg.MustRegister(metric.NewServerCollector(srv.ActiveConnections))
		go func() {
			if err := reg.Serve(ctx, addr); err != nil {
				log.Error("metrics endpoint stopped", "address", addr, "error", err)
			}
		}()
		log.Info("serving metrics", "address", addr)
	}

	log.Info("stub server started, press Ctrl+C to stop", "version", buildinfo.Version)
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("stub server stopped")
	return nil
}
