package config

import "time"

// CLIConfig is the configuration for habbo-cli.
type CLIConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server" json:"server"`
	TLS     TLSSection     `koanf:"tls" yaml:"tls" json:"tls"`
	Client  ClientSection  `koanf:"client" yaml:"client" json:"client"`
	Auth    AuthSection    `koanf:"auth" yaml:"auth" json:"auth"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
	Output  OutputSection  `koanf:"output" yaml:"output" json:"output"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// ServerSection selects the game server and link timeouts.
type ServerSection struct {
	Host           string        `koanf:"host" yaml:"host" json:"host"`
	Port           int           `koanf:"port" yaml:"port" json:"port"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" yaml:"connect_timeout" json:"connect_timeout"`
	// ReadTimeout of 0 keeps an idle link open indefinitely.
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
}

// TLSSection configures transport security.
type TLSSection struct {
	Enabled    bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	CAFile     string `koanf:"ca_file" yaml:"ca_file" json:"ca_file"`
	CADir      string `koanf:"ca_dir" yaml:"ca_dir" json:"ca_dir"`
	ServerName string `koanf:"server_name" yaml:"server_name" json:"server_name"`
	Insecure   bool   `koanf:"insecure" yaml:"insecure" json:"insecure"`

	// NoSystemRoots trusts only ca_file and ca_dir.
	NoSystemRoots bool `koanf:"no_system_roots" yaml:"no_system_roots" json:"no_system_roots"`
}

// ClientSection configures what the client announces and how fast it sends.
type ClientSection struct {
	Version      string  `koanf:"version" yaml:"version" json:"version"`
	Identifier   string  `koanf:"identifier" yaml:"identifier" json:"identifier"`
	MaxFrameSize int     `koanf:"max_frame_size" yaml:"max_frame_size" json:"max_frame_size"`
	SendRate     float64 `koanf:"send_rate" yaml:"send_rate" json:"send_rate"`
	SendBurst    int     `koanf:"send_burst" yaml:"send_burst" json:"send_burst"`
}

// AuthSection configures the authentication coordinator.
type AuthSection struct {
	TokenTTL         time.Duration `koanf:"token_ttl" yaml:"token_ttl" json:"token_ttl"`
	MaxLoginAttempts int           `koanf:"max_login_attempts" yaml:"max_login_attempts" json:"max_login_attempts"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// OutputSection configures presentation.
type OutputSection struct {
	Format      string `koanf:"format" yaml:"format" json:"format"` // text, json, yaml
	HistoryFile string `koanf:"history_file" yaml:"history_file" json:"history_file"`
}

// MetricsSection configures the optional Prometheus endpoint.
type MetricsSection struct {
	// Addr enables /metrics when non-empty (e.g. "127.0.0.1:9464").
	Addr string `koanf:"addr" yaml:"addr" json:"addr"`
}
