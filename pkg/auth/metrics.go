package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for authentication decisions
type Metrics struct {
	DecisionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the auth metrics on the given registry.
// A nil registerer skips registration (tests).
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_auth_decisions_total",
				Help: "Authentication decisions by project, scheme, outcome and reason",
			},
			[]string{"project", "scheme", "outcome", "reason"},
		),
	}
	if registerer != nil {
		registerer.MustRegister(m.DecisionsTotal)
	}
	return m
}

func (m *Metrics) observe(project string, scheme SchemeKind, failure *Failure) {
	if m == nil {
		return
	}
	if failure == nil {
		m.DecisionsTotal.WithLabelValues(project, string(scheme), "authenticated", "").Inc()
		return
	}
	m.DecisionsTotal.WithLabelValues(project, string(scheme), "rejected", string(failure.Reason)).Inc()
}
