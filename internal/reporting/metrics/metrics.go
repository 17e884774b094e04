package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for report reads.
type Metrics struct {
	ReportLatency *prometheus.HistogramVec
}

// New registers reporting metrics on reg. Passing nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ReportLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontdesk_report_duration_seconds",
			Help:    "Duration of derived report reads by report",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"report"}), // report: "list_aggregate", "ranking", "attendance"
	}
}

// ObserveReportLatency records how long a report took to derive.
func (m *Metrics) ObserveReportLatency(report string, d time.Duration) {
	if m != nil {
		m.ReportLatency.WithLabelValues(report).Observe(d.Seconds())
	}
}
