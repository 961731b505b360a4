package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

const namespace = "vibebridge"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Rejections      *prometheus.CounterVec

	// Session metrics
	Handshakes prometheus.Counter

	// Command metrics
	CommandsEnqueued *prometheus.CounterVec
	CommandsExecuted *prometheus.CounterVec
	CommandDuration  prometheus.Histogram
}

// NewRegistry creates a registry with Go runtime and process collectors
// already registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected requests, by error code.",
		}, []string{"code"}),
		Handshakes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Committed handshakes.",
		}),
		CommandsEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_enqueued_total",
			Help:      "Commands accepted into the queue, by endpoint.",
		}, []string{"endpoint"}),
		CommandsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_executed_total",
			Help:      "Commands drained by the host, by endpoint and result.",
		}, []string{"endpoint", "result"}),
		CommandDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Host-side command execution time.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
	}
}

// Register adds extra collectors, such as a StateCollector.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveRequest records one finished request.
func (r *Registry) ObserveRequest(endpoint string, status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(endpoint, http.StatusText(status)).Inc()
	r.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveRejection records a rejected request by error code.
func (r *Registry) ObserveRejection(code string) {
	if code == "" {
		code = "unknown"
	}
	r.Rejections.WithLabelValues(code).Inc()
}

// ObserveHandshake records a committed handshake.
func (r *Registry) ObserveHandshake(int64) {
	r.Handshakes.Inc()
}

// CommandEnqueued implements queue.Observer.
func (r *Registry) CommandEnqueued(cmd domain.Command) {
	r.CommandsEnqueued.WithLabelValues(cmd.Endpoint.String()).Inc()
}

// CommandExecuted implements queue.Observer.
func (r *Registry) CommandExecuted(cmd domain.Command, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.CommandsExecuted.WithLabelValues(cmd.Endpoint.String(), result).Inc()
	r.CommandDuration.Observe(d.Seconds())
}

// Handler returns an HTTP handler serving this registry in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
