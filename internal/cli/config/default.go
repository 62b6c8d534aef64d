package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/habbo-go/internal/core/domain"
	"github.com/yndnr/habbo-go/internal/core/service"
	"github.com/yndnr/habbo-go/internal/infra/buildinfo"
	"github.com/yndnr/habbo-go/internal/protocol"
)

// Default configuration values.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 30000
	DefaultConnectTimeout = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second

	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
	DefaultOutputFormat = "text"

	dirName = ".habbo"
)

// Dir returns the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history file path.
func DefaultHistoryPath() string {
	return filepath.Join(Dir(), "history")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: ServerSection{
			Host:           DefaultHost,
			Port:           DefaultPort,
			ConnectTimeout: DefaultConnectTimeout,
			WriteTimeout:   DefaultWriteTimeout,
		},
		Client: ClientSection{
			Version:      buildinfo.ClientVersion(),
			Identifier:   protocol.DefaultClientIdentifier,
			MaxFrameSize: protocol.DefaultMaxFrameSize,
			SendBurst:    1,
		},
		Auth: AuthSection{
			TokenTTL:         domain.DefaultTokenTTL,
			MaxLoginAttempts: service.DefaultMaxLoginAttempts,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: OutputSection{
			Format:      DefaultOutputFormat,
			HistoryFile: DefaultHistoryPath(),
		},
	}
}

// Flatten returns cfg as "section.key" values, the shape confloader uses
// for defaults and flag overrides.
func Flatten(cfg *CLIConfig) map[string]any {
	return map[string]any{
		"server.host":             cfg.Server.Host,
		"server.port":             cfg.Server.Port,
		"server.connect_timeout":  cfg.Server.ConnectTimeout.String(),
		"server.read_timeout":     cfg.Server.ReadTimeout.String(),
		"server.write_timeout":    cfg.Server.WriteTimeout.String(),
		"tls.enabled":             cfg.TLS.Enabled,
		"tls.ca_file":             cfg.TLS.CAFile,
		"tls.ca_dir":              cfg.TLS.CADir,
		"tls.no_system_roots":     cfg.TLS.NoSystemRoots,
		"tls.server_name":         cfg.TLS.ServerName,
		"tls.insecure":            cfg.TLS.Insecure,
		"client.version":          cfg.Client.Version,
		"client.identifier":       cfg.Client.Identifier,
		"client.max_frame_size":   cfg.Client.MaxFrameSize,
		"client.send_rate":        cfg.Client.SendRate,
		"client.send_burst":       cfg.Client.SendBurst,
		"auth.token_ttl":          cfg.Auth.TokenTTL.String(),
		"auth.max_login_attempts": cfg.Auth.MaxLoginAttempts,
		"log.level":               cfg.Log.Level,
		"log.format":              cfg.Log.Format,
		"output.format":           cfg.Output.Format,
		"output.history_file":     cfg.Output.HistoryFile,
		"metrics.addr":            cfg.Metrics.Addr,
	}
}
