package connection

import (
	"crypto/tls"
	"time"

	"github.com/yndnr/habbo-go/internal/core/service"
	"github.com/yndnr/habbo-go/internal/protocol"
	"github.com/yndnr/habbo-go/internal/telemetry/logger"
	"github.com/yndnr/habbo-go/internal/telemetry/metric"
)

// Default connection settings.
const (
	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Options holds connection settings.
type Options struct {
	// DialTimeout bounds TCP connect plus TLS handshake.
	DialTimeout time.Duration

	// ReadTimeout is the longest the link may stay silent before it is
	// considered broken (0 = wait forever).
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write (0 = no deadline).
	WriteTimeout time.Duration

	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config

	// MaxFrameSize bounds inbound frames (0 = protocol.DefaultMaxFrameSize).
	MaxFrameSize int

	// SendRate limits outbound frames per second (0 = unlimited).
	SendRate float64

	// SendBurst is the limiter bucket size when SendRate is set.
	SendBurst int

	// ClientVersion and ClientIdentifier are sent in AuthenticationRequest.
	ClientVersion    string
	ClientIdentifier string

	Logger        logger.Logger
	Metrics       *metric.Registry
	Authenticator *service.Authenticator
	Listener      Listener

	// AuthOptions configure the Authenticator created when none is given.
	AuthOptions []service.AuthenticatorOption
}

// DefaultOptions returns the default connection settings.
func DefaultOptions() Options {
	return Options{
		DialTimeout:      DefaultDialTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		MaxFrameSize:     protocol.DefaultMaxFrameSize,
		ClientVersion:    protocol.DefaultClientVersion,
		ClientIdentifier: protocol.DefaultClientIdentifier,
	}
}

// Option configures a Connection.
type Option func(*Options)

// WithDialTimeout sets the connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = d
	}
}

// WithReadTimeout sets the idle read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

// WithTLS enables TLS with cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(o *Options) {
		o.TLSConfig = cfg
	}
}

// WithMaxFrameSize bounds inbound frame payloads.
func WithMaxFrameSize(n int) Option {
	return func(o *Options) {
		o.MaxFrameSize = n
	}
}

// WithSendRate limits outbound frames to perSecond with the given burst.
func WithSendRate(perSecond float64, burst int) Option {
	return func(o *Options) {
		o.SendRate = perSecond
		o.SendBurst = burst
	}
}

// WithClientInfo overrides the client version and identifier.
func WithClientInfo(version, identifier string) Option {
	return func(o *Options) {
		if version != "" {
			o.ClientVersion = version
		}
		if identifier != "" {
			o.ClientIdentifier = identifier
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics records link and auth metrics into r.
func WithMetrics(r *metric.Registry) Option {
	return func(o *Options) {
		o.Metrics = r
	}
}

// WithAuthenticator sets the coordinator owned by the connection.
func WithAuthenticator(a *service.Authenticator) Option {
	return func(o *Options) {
		o.Authenticator = a
	}
}

// WithAuthOptions configures the connection's own Authenticator.
func WithAuthOptions(opts ...service.AuthenticatorOption) Option {
	return func(o *Options) {
		o.AuthOptions = append(o.AuthOptions, opts...)
	}
}

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(o *Options) {
		o.Listener = l
	}
}
