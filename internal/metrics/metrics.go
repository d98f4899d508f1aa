// Package metrics counts duplicate reconciliation and session activity with
// Prometheus counters.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// guard metric calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spread"

// Recorder owns a private registry and the counters registered on it.
type Recorder struct {
	registry *prometheus.Registry

	slotsCreated prometheus.Counter
	slotsUpdated prometheus.Counter
	slotsRemoved prometheus.Counter
	sessions     *prometheus.CounterVec
	events       *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		slotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_created_total",
			Help:      "Duplicate objects created by reconciliation.",
		}),
		slotsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_updated_total",
			Help:      "Duplicate objects moved in place by reconciliation.",
		}),
		slotsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_removed_total",
			Help:      "Duplicate objects deleted by shrinking or cancelling.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions by how they ended (started, confirmed, cancelled, rejected).",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Input events by how the session treated them.",
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(r.slotsCreated, r.slotsUpdated, r.slotsRemoved, r.sessions, r.events)
	return r
}

// Registry exposes the registry for gathering and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Reconciled adds the slot counts of one reconcile pass.
func (r *Recorder) Reconciled(created, updated, removed int) {
	if r == nil {
		return
	}
	r.slotsCreated.Add(float64(created))
	r.slotsUpdated.Add(float64(updated))
	r.slotsRemoved.Add(float64(removed))
}

// Session counts a session lifecycle outcome.
func (r *Recorder) Session(outcome string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(outcome).Inc()
}

// Event counts one handled input event by outcome.
func (r *Recorder) Event(outcome string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(outcome).Inc()
}
