// Package metrics provides Prometheus instrumentation for the eligibility
// core.
//
// All collectors are registered in a custom [prometheus.Registry] (not the
// global default) so embedding applications control what they expose and
// tests can instantiate isolated registries.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus collectors used by the eligibility core.
type Metrics struct {
	Registry *prometheus.Registry

	// EvaluationsTotal counts condition evaluations by result:
	// "satisfied", "violated" or "degraded" (configuration defect handled
	// fail-closed).
	EvaluationsTotal *prometheus.CounterVec

	// ResolutionsTotal counts attribute resolutions by source
	// (native, computed, dynamic, absent).
	ResolutionsTotal *prometheus.CounterVec

	// UpsertConflictsTotal counts lost races on the value store's atomic
	// upsert. Each conflict is retried once; a nonzero rate is normal under
	// concurrent admin edits, a high rate is not.
	UpsertConflictsTotal prometheus.Counter
}

// New creates and registers all collectors in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubgate_condition_evaluations_total",
			Help: "Total number of condition evaluations.",
		}, []string{"result"}),

		ResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubgate_attribute_resolutions_total",
			Help: "Total number of attribute resolutions.",
		}, []string{"source"}),

		UpsertConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubgate_attribute_upsert_conflicts_total",
			Help: "Total number of retried attribute upsert conflicts.",
		}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.ResolutionsTotal,
		m.UpsertConflictsTotal,
	)

	return m
}
