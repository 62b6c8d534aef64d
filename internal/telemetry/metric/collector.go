package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/habbo-go/internal/core/domain"
)

// SessionSource reports the authentication state of one connection.
// *service.Authenticator satisfies it.
type SessionSource interface {
	IsAuthenticated() bool
	LoginAttempts() int
	CurrentToken() *domain.SessionToken
}

// SessionCollector reads session state at scrape time.
//
// The source is resolved on every scrape, so it may change as the front
// end replaces its connection; a nil source reports an idle session.
type SessionCollector struct {
	source func() SessionSource

	authenticated *prometheus.Desc
	remaining     *prometheus.Desc
	attempts      *prometheus.Desc
}

// NewSessionCollector creates a collector for the session returned by source.
func NewSessionCollector(source func() SessionSource) *SessionCollector {
	return &SessionCollector{
		source: source,
		authenticated: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "authenticated"),
			"1 while a valid session token is held",
			nil, nil,
		),
		remaining: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "token_remaining_seconds"),
			"Seconds until the session token expires",
			nil, nil,
		),
		attempts: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "failed_login_attempts"),
			"Consecutive failed logins since the last success or logout",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.authenticated
	ch <- c.remaining
	ch <- c.attempts
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	var (
		authenticated float64
		remaining     float64
		attempts      float64
	)

	var src SessionSource
	if c.source != nil {
		src = c.source()
	}
	if src != nil {
		if src.IsAuthenticated() {
			authenticated = 1
		}
		if tok := src.CurrentToken(); tok != nil {
			remaining = tok.RemainingTime().Seconds()
		}
		attempts = float64(src.LoginAttempts())
	}

	ch <- prometheus.MustNewConstMetric(c.authenticated, prometheus.GaugeValue, authenticated)
	ch <- prometheus.MustNewConstMetric(c.remaining, prometheus.GaugeValue, remaining)
	ch <- prometheus.MustNewConstMetric(c.attempts, prometheus.GaugeValue, attempts)
}

// NewServerCollector reports the stub server's open links at scrape time.
func NewServerCollector(active func() int) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "stub",
		Name:      "active_connections",
		Help:      "Client links currently served by the stub server",
	}, func() float64 {
		return float64(active())
	})
}
