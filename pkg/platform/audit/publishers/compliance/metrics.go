package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsEmitted  prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_override_audit_records_total",
			Help: "Override audit records persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_override_audit_failures_total",
			Help: "Override audit writes that failed and aborted the revocation",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "frontdesk_override_audit_persist_seconds",
			Help:    "Time to persist a batch of override audit records",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) AddRecordsEmitted(n int) {
	m.RecordsEmitted.Add(float64(n))
}

func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.PersistDuration.Observe(seconds)
}
