// Package compliance emits override audit records with fail-closed semantics.
//
// Emit blocks until the record is persisted. When persistence fails an error
// is returned and the calling revocation must roll back.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	audit "frontdesk/pkg/platform/audit"
)

// Publisher emits override records with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides the timestamp source for records that arrive without one.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and synchronously writes records. Either every record is
// handed to the store or none is; the caller MUST fail its operation on error.
func (p *Publisher) Emit(ctx context.Context, records ...audit.OverrideRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	prepared := make([]audit.OverrideRecord, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			p.fail(ctx, r, err)
			return fmt.Errorf("override audit rejected: %w", err)
		}
		if r.ID.IsNil() {
			r.ID = id.AuditID(uuid.New())
		}
		if r.At.IsZero() {
			r.At = p.now()
		}
		prepared = append(prepared, r)
	}

	if err := p.store.Append(ctx, prepared...); err != nil {
		p.fail(ctx, prepared[0], err)
		return fmt.Errorf("override audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.AddRecordsEmitted(len(prepared))
	}
	return nil
}

func (p *Publisher) fail(ctx context.Context, r audit.OverrideRecord, err error) {
	if p.metrics != nil {
		p.metrics.IncPersistFailures()
	}
	if p.logger != nil {
		p.logger.ErrorContext(ctx, "CRITICAL: override audit failed",
			"action", r.Action,
			"claim_id", r.ClaimID,
			"actor_id", r.ActorID,
			"error", err,
		)
	}
}
