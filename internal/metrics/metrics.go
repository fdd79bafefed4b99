// Package metrics exposes cart synchronizer counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/laptophub/internal/domain"
)

const namespace = "laptophub"

// Recorder counts cart mutations and bus events.
// It satisfies service.MetricsRecorder.
type Recorder struct {
	registry *prometheus.Registry

	mutations *prometheus.CounterVec
	events    *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Remote cart mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	r.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "events_total",
			Help:      "Cart-change notifications published",
		},
		[]string{"kind"},
	)

	r.pending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "pending_updates",
			Help:      "Quantity changes shown optimistically and not yet confirmed",
		},
	)

	r.registry.MustRegister(r.mutations, r.events, r.pending)
	return r
}

// Mutation counts one remote mutation; a non-nil err counts as an error
func (r *Recorder) Mutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.mutations.WithLabelValues(op, result).Inc()
}

// Event counts one published cart event
func (r *Recorder) Event(kind domain.EventKind) {
	r.events.WithLabelValues(kind.String()).Inc()
}

// PendingUpdates sets the ledger size
func (r *Recorder) PendingUpdates(n int) {
	r.pending.Set(float64(n))
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
