package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the claim registry.
type Metrics struct {
	ClaimAttempts      *prometheus.CounterVec
	ClaimTxDuration    *prometheus.HistogramVec
	Revocations        *prometheus.CounterVec
	BulkRevokeRejected prometheus.Counter
	ClaimInsertRetries prometheus.Counter
}

// New registers claim metrics on reg. Passing nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ClaimAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_claim_attempts_total",
			Help: "Claim attempts by purpose and outcome (claimed, already_held, conflict, error)",
		}, []string{"purpose", "outcome"}),
		ClaimTxDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontdesk_claim_tx_duration_seconds",
			Help:    "Duration of claim registry transactions by operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		Revocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_claim_revocations_total",
			Help: "Revoked claims by purpose and mode (single, bulk)",
		}, []string{"purpose", "mode"}),
		BulkRevokeRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_bulk_revoke_rejected_total",
			Help: "Bulk revocations rejected for a wrong confirmation code",
		}),
		ClaimInsertRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_claim_insert_retries_total",
			Help: "Claim inserts that lost a race and re-read the winner",
		}),
	}
}

// IncAttempt records a claim attempt result.
func (m *Metrics) IncAttempt(purpose, outcome string) {
	m.ClaimAttempts.WithLabelValues(purpose, outcome).Inc()
}

// ObserveTx records the duration of a registry transaction.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTx(operation string, start time.Time) {
	m.ClaimTxDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// AddRevocations records n revoked claims.
func (m *Metrics) AddRevocations(purpose, mode string, n int) {
	m.Revocations.WithLabelValues(purpose, mode).Add(float64(n))
}

// IncBulkRevokeRejected records a bulk revoke refused before any change.
func (m *Metrics) IncBulkRevokeRejected() {
	m.BulkRevokeRejected.Inc()
}

// IncInsertRetry records a lost insert race.
func (m *Metrics) IncInsertRetry() {
	m.ClaimInsertRetries.Inc()
}
