// Package metrics exposes Prometheus instrumentation for operation dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "mcpnotes"

// Outcome labels for the dispatch counter.
const (
	OutcomeOK = "ok"
)

// Recorder holds the dispatch collectors on a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	dispatches  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited prometheus.Counter
	notes       prometheus.Gauge
}

// New creates a Recorder. When withRuntime is set the Go runtime and process
// collectors are registered as well.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dispatch_total",
			Help:      "Operations dispatched, by server, operation and outcome.",
		}, []string{"server", "operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching an operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"server", "operation"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_rate_limited_total",
			Help:      "HTTP requests rejected by the per-client rate limiter.",
		}),
		notes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "notes",
			Help:      "Notes held by the store after the last load or save.",
		}),
	}

	reg.MustRegister(r.dispatches, r.latency, r.rateLimited, r.notes)
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// ObserveDispatch records one dispatch. outcome is OutcomeOK or the error
// envelope kind.
func (r *Recorder) ObserveDispatch(server, operation, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.dispatches.WithLabelValues(server, operation, outcome).Inc()
	r.latency.WithLabelValues(server, operation).Observe(d.Seconds())
}

// IncRateLimited counts a rejected HTTP request.
func (r *Recorder) IncRateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// SetNoteCount publishes the current number of stored notes.
func (r *Recorder) SetNoteCount(n int) {
	if r == nil {
		return
	}
	r.notes.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
