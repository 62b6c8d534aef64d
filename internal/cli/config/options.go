package config

import (
	"io"
	"os"

	"github.com/yndnr/habbo-go/internal/cli/connection"
	"github.com/yndnr/habbo-go/internal/core/service"
	"github.com/yndnr/habbo-go/internal/infra/tlsroots"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
)

// ConnectionOptions translates the link settings into connection options.
func (c *CLIConfig) ConnectionOptions() ([]connection.Option, error) {
	opts := []connection.Option{
		connection.WithDialTimeout(c.Server.ConnectTimeout),
		connection.WithReadTimeout(c.Server.ReadTimeout),
		connection.WithWriteTimeout(c.Server.WriteTimeout),
		connection.WithMaxFrameSize(c.Client.MaxFrameSize),
		connection.WithClientInfo(c.Client.Version, c.Client.Identifier),
		connection.WithAuthOptions(c.AuthenticatorOptions()...),
	}
	if c.Client.SendRate > 0 {
		opts = append(opts, connection.WithSendRate(c.Client.SendRate, c.Client.SendBurst))
	}

	if c.TLS.Enabled {
		tlsCfg, err := tlsroots.ClientConfig(tlsroots.ClientOptions{
			CAFile:             c.TLS.CAFile,
			CADir:              c.TLS.CADir,
			NoSystemRoots:      c.TLS.NoSystemRoots,
			ServerName:         c.TLS.ServerName,
			InsecureSkipVerify: c.TLS.Insecure,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLS(tlsCfg))
	}
	return opts, nil
}

// AuthenticatorOptions returns the coordinator settings.
func (c *CLIConfig) AuthenticatorOptions() []service.AuthenticatorOption {
	return []service.AuthenticatorOption{
		service.WithTokenTTL(c.Auth.TokenTTL),
		service.WithMaxAttempts(c.Auth.MaxLoginAttempts),
	}
}

// LoggerConfig returns the logger settings writing to w (stderr if nil).
func (c *CLIConfig) LoggerConfig(w io.Writer) logger.Config {
	if w == nil {
		w = os.Stderr
	}
	return logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: w,
	}
}
