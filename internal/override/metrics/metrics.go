package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts override actions and denials.
type Metrics struct {
	Overrides *prometheus.CounterVec
	Denied    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Overrides: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_overrides_total",
			Help: "Completed override actions by action",
		}, []string{"action"}),
		Denied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_override_denied_total",
			Help: "Override attempts refused for missing permission, by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncOverride(action string) {
	m.Overrides.WithLabelValues(action).Inc()
}

func (m *Metrics) IncDenied(action string) {
	m.Denied.WithLabelValues(action).Inc()
}
