// Package metrics exposes Prometheus counters for the rules engine.
//
// A nil *Metrics is valid and records nothing, so components can take one
// optionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sidebearing"

// Metrics groups the engine's counters.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	Rebuilds        prometheus.Counter
	PersistFailures prometheus.Counter
	Evaluations     *prometheus.CounterVec
	Warnings        prometheus.Counter
	Propagations    prometheus.Counter
}

// New creates the counters and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "mutations_total",
			Help:      "Rule table mutations by operation.",
		}, []string{"op"}),
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "rebuilds_total",
			Help:      "Parsed cache and dependency index rebuilds.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "persist_failures_total",
			Help:      "Snapshot persistence calls that returned an error.",
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Rule evaluations by result (value or none).",
		}, []string{"result"}),
		Warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cascade_warnings_total",
			Help:      "Evaluator faults demoted to warnings during a cascade.",
		}),
		Propagations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "propagations_total",
			Help:      "Composite glyphs shifted by geometric propagation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.Rebuilds, m.PersistFailures, m.Evaluations, m.Warnings, m.Propagations)
	}
	return m
}

// Mutation counts a rule table mutation.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op).Inc()
}

// Rebuild counts a cache rebuild.
func (m *Metrics) Rebuild() {
	if m == nil {
		return
	}
	m.Rebuilds.Inc()
}

// PersistFailure counts a failed persistence call.
func (m *Metrics) PersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// Evaluation counts an evaluation; ok reports whether it produced a value.
func (m *Metrics) Evaluation(ok bool) {
	if m == nil {
		return
	}
	result := "none"
	if ok {
		result = "value"
	}
	m.Evaluations.WithLabelValues(result).Inc()
}

// Warning counts a demoted evaluator fault.
func (m *Metrics) Warning() {
	if m == nil {
		return
	}
	m.Warnings.Inc()
}

// Propagation counts a composite shifted by propagation.
func (m *Metrics) Propagation() {
	if m == nil {
		return
	}
	m.Propagations.Inc()
}
