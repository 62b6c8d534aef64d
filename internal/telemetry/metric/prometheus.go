package metric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "habbo"

// Result label values for ConnectsTotal and AuthAttempts.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Registry holds all client metrics.
type Registry struct {
	reg *prometheus.Registry

	// Link metrics
	ConnectsTotal  *prometheus.CounterVec // result: success|failure
	Disconnects    prometheus.Counter
	LinkUp         prometheus.Gauge
	FramesSent     prometheus.Counter
	FramesReceived prometheus.Counter
	BytesSent      prometheus.Counter
	BytesReceived  prometheus.Counter
	SendDuration   prometheus.Histogram

	// Protocol metrics
	DecodeErrors *prometheus.CounterVec // code: domain error code

	// Auth metrics
	AuthAttempts *prometheus.CounterVec // result: success|failure|rejected
}

// NewRegistry creates a registry with the Go runtime and process
// collectors plus every client metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		ConnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "connects_total",
			Help:      "Connection attempts by result",
		}, []string{"result"}),

		Disconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "disconnects_total",
			Help:      "Transitions from connected to disconnected",
		}),

		LinkUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "up",
			Help:      "1 while a connection is established",
		}),

		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "frames_sent_total",
			Help:      "Frames written to the socket",
		}),

		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "frames_received_total",
			Help:      "Frames read from the socket",
		}),

		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "bytes_sent_total",
			Help:      "Payload bytes written, excluding length prefixes",
		}),

		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "bytes_received_total",
			Help:      "Payload bytes read, excluding length prefixes",
		}),

		SendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "link",
			Name:      "send_duration_seconds",
			Help:      "Time spent waiting for the limiter and writing one frame",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "protocol",
			Name:      "decode_errors_total",
			Help:      "Inbound frames that could not be decoded, by error code",
		}, []string{"code"}),

		AuthAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
	}
}

// MustRegister registers additional collectors, e.g. a SessionCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is canceled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
