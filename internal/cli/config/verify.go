package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// Validate checks cfg and reports every problem found.
func Validate(cfg *CLIConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Server.Host == "" {
		add("server.host is required")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		add("server.port must be in 1..65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.ConnectTimeout < 0 || cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 {
		add("server timeouts must not be negative")
	}

	if cfg.TLS.CAFile != "" {
		if _, err := os.Stat(cfg.TLS.CAFile); err != nil {
			add("tls.ca_file: %v", err)
		}
	}
	if cfg.TLS.CADir != "" {
		if fi, err := os.Stat(cfg.TLS.CADir); err != nil {
			add("tls.ca_dir: %v", err)
		} else if !fi.IsDir() {
			add("tls.ca_dir: %s is not a directory", cfg.TLS.CADir)
		}
	}
	if cfg.TLS.NoSystemRoots && cfg.TLS.CAFile == "" && cfg.TLS.CADir == "" {
		add("tls.no_system_roots requires tls.ca_file or tls.ca_dir")
	}

	if cfg.Client.Version == "" || cfg.Client.Identifier == "" {
		add("client.version and client.identifier are required")
	}
	if cfg.Client.MaxFrameSize < 64 {
		add("client.max_frame_size must be at least 64, got %d", cfg.Client.MaxFrameSize)
	}
	if cfg.Client.SendRate < 0 {
		add("client.send_rate must not be negative")
	}
	if cfg.Client.SendRate > 0 && cfg.Client.SendBurst < 1 {
		add("client.send_burst must be at least 1 when send_rate is set")
	}

	if cfg.Auth.TokenTTL <= 0 {
		add("auth.token_ttl must be positive")
	}
	if cfg.Auth.MaxLoginAttempts < 1 {
		add("auth.max_login_attempts must be at least 1")
	}

	if !logger.ValidLevel(cfg.Log.Level) {
		add("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		add("log.format %q is not one of text, json", cfg.Log.Format)
	}

	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		add("output.format %q is not one of text, json, yaml", cfg.Output.Format)
	}

	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			add("metrics.addr: %v", err)
		}
	}

	return errors.Join(errs...)
}
