package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"frontdesk/internal/claim/metrics"
	"frontdesk/internal/claim/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
	"frontdesk/pkg/requestcontext"
)

// Store persists claims. Implementations return sentinel errors; Insert
// assigns ClaimedAt and returns sentinel.ErrConflict when the key already
// has an ACTIVE claim.
type Store interface {
	FindActive(ctx context.Context, key models.Key) (*models.Claim, error)
	Insert(ctx context.Context, c *models.Claim) (*models.Claim, error)
	MarkRevoked(ctx context.Context, claimID id.ClaimID, rev models.Revocation) error
	ListActiveByPurpose(ctx context.Context, purpose id.ClaimPurpose) ([]*models.Claim, error)
	ListActiveByContainer(ctx context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*models.Claim, error)
	ListByKey(ctx context.Context, key models.Key) ([]*models.Claim, error)
}

// MemberLookup confirms a member exists in the directory.
type MemberLookup interface {
	Exists(ctx context.Context, memberID id.MemberID) (bool, error)
}

// maxInsertAttempts bounds the read-insert loop. A lost insert re-reads the
// winner; the loop only repeats if that winner was revoked in between.
const maxInsertAttempts = 3

// Registry is the single atomic test-and-set over (member, purpose).
type Registry struct {
	tx      ClaimStoreTx
	store   Store
	members MemberLookup
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

// New constructs a Registry. store is used for reads outside transactions.
func New(tx ClaimStoreTx, store Store, members MemberLookup, opts ...Option) *Registry {
	r := &Registry{
		tx:      tx,
		store:   store,
		members: members,
		tracer:  otel.Tracer("frontdesk/claim"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TryClaim atomically claims (member, purpose) for the holder. Conflicts are
// an outcome, not an error; the returned conflict claim is the one read in
// the transaction that decided it. A timeout or unavailable store leaves the
// outcome unknown and the request may be retried as is.
func (r *Registry) TryClaim(ctx context.Context, req models.ClaimRequest) (*models.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "claim.TryClaim", trace.WithAttributes(
		attribute.String("claim.purpose", string(req.Purpose)),
		attribute.String("claim.member_id", req.MemberID.String()),
	))
	defer span.End()

	outcome, err := r.tryClaim(ctx, req)
	if err != nil {
		r.incAttempt(req.Purpose, "error")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.incAttempt(req.Purpose, string(outcome.Kind))
	span.SetAttributes(attribute.String("claim.outcome", string(outcome.Kind)))

	switch outcome.Kind {
	case models.OutcomeClaimed:
		r.logAudit(ctx, "claim_created",
			"claim_id", outcome.Claim.ID.String(),
			"member_id", req.MemberID.String(),
			"purpose", string(req.Purpose),
			"operator_id", req.Holder.OperatorID.String(),
			"container_id", req.ContainerID.String(),
		)
	case models.OutcomeConflict:
		r.logInfo(ctx, "claim conflict",
			"member_id", req.MemberID.String(),
			"purpose", string(req.Purpose),
			"operator_id", req.Holder.OperatorID.String(),
			"holder_operator_id", outcome.Claim.Holder.OperatorID.String(),
		)
	}
	return outcome, nil
}

func (r *Registry) tryClaim(ctx context.Context, req models.ClaimRequest) (*models.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	exists, err := r.members.Exists(ctx, req.MemberID)
	if err != nil {
		return nil, translateStoreErr(err, "member lookup failed")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}

	start := time.Now()
	defer r.observeTx("try_claim", start)

	var outcome *models.Outcome
	err = r.tx.RunInTx(withShardKey(ctx, req.Key()), func(ctx context.Context, store Store) error {
		for attempt := 0; attempt < maxInsertAttempts; attempt++ {
			existing, err := store.FindActive(ctx, req.Key())
			if err == nil {
				outcome = classify(existing, req.Holder)
				return nil
			}
			if !errors.Is(err, sentinel.ErrNotFound) {
				return translateStoreErr(err, "read active claim")
			}

			created, err := store.Insert(ctx, &models.Claim{
				ID:          id.ClaimID(uuid.New()),
				MemberID:    req.MemberID,
				Purpose:     req.Purpose,
				Holder:      req.Holder,
				ContainerID: req.ContainerID,
			})
			if err == nil {
				outcome = &models.Outcome{Kind: models.OutcomeClaimed, Claim: created}
				return nil
			}
			if !errors.Is(err, sentinel.ErrConflict) {
				return translateStoreErr(err, "insert claim")
			}
			r.incInsertRetry()
		}
		return dErrors.New(dErrors.CodeUnavailable, "claim contention did not settle, retry")
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// classify turns an existing ACTIVE claim into the caller's outcome. A
// replay by the winning holder succeeds even if it names another container;
// the original claim is returned unchanged.
func classify(existing *models.Claim, holder models.Holder) *models.Outcome {
	if existing.HeldBy(holder.OperatorID) {
		return &models.Outcome{Kind: models.OutcomeAlreadyHeld, Claim: existing}
	}
	return &models.Outcome{Kind: models.OutcomeConflict, Claim: existing}
}

// Revoke moves the ACTIVE claim for the key to REVOKED. OnRevoked runs in the
// same transaction before the claim changes; its error aborts the revoke.
func (r *Registry) Revoke(ctx context.Context, req models.RevokeRequest) (*models.Claim, error) {
	ctx, span := r.tracer.Start(ctx, "claim.Revoke", trace.WithAttributes(
		attribute.String("claim.purpose", string(req.Key.Purpose)),
		attribute.String("claim.member_id", req.Key.MemberID.String()),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	defer r.observeTx("revoke", start)

	var revoked *models.Claim
	err := r.tx.RunInTx(withShardKey(ctx, req.Key), func(ctx context.Context, store Store) error {
		active, err := store.FindActive(ctx, req.Key)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no active claim for member and purpose")
			}
			return translateStoreErr(err, "read active claim")
		}
		if req.ContainerID != nil && active.ContainerID != *req.ContainerID {
			return dErrors.New(dErrors.CodeNotFound, "member has no active claim in this container")
		}

		rev := models.Revocation{At: requestcontext.Now(ctx).UTC(), By: req.Actor.OperatorID, Reason: req.Reason}
		revoked = active.Revoked(rev)
		if req.OnRevoked != nil {
			if err := req.OnRevoked(ctx, []*models.Claim{revoked}); err != nil {
				return hookErr(err)
			}
		}
		if err := store.MarkRevoked(ctx, active.ID, rev); err != nil {
			return translateStoreErr(err, "revoke claim")
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r.addRevocations(req.Key.Purpose, "single", 1)
	r.logAudit(ctx, "claim_revoked",
		"claim_id", revoked.ID.String(),
		"member_id", revoked.MemberID.String(),
		"purpose", string(revoked.Purpose),
		"operator_id", req.Actor.OperatorID.String(),
		"holder_operator_id", revoked.Holder.OperatorID.String(),
	)
	return revoked, nil
}

// RevokeAll revokes every ACTIVE claim of a purpose in one transaction.
// Either all of them change or none do.
func (r *Registry) RevokeAll(ctx context.Context, req models.BulkRevokeRequest) (int, error) {
	ctx, span := r.tracer.Start(ctx, "claim.RevokeAll", trace.WithAttributes(
		attribute.String("claim.purpose", string(req.Purpose)),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	start := time.Now()
	defer r.observeTx("revoke_all", start)

	var count int
	err := r.tx.RunInTx(withAllShards(ctx), func(ctx context.Context, store Store) error {
		active, err := store.ListActiveByPurpose(ctx, req.Purpose)
		if err != nil {
			return translateStoreErr(err, "list active claims")
		}
		if len(active) == 0 {
			return nil
		}

		rev := models.Revocation{At: requestcontext.Now(ctx).UTC(), By: req.Actor.OperatorID, Reason: req.Reason}
		revoked := make([]*models.Claim, len(active))
		for i, c := range active {
			revoked[i] = c.Revoked(rev)
		}
		if req.OnRevoked != nil {
			if err := req.OnRevoked(ctx, revoked); err != nil {
				return hookErr(err)
			}
		}
		for _, c := range active {
			if err := store.MarkRevoked(ctx, c.ID, rev); err != nil {
				return translateStoreErr(err, "revoke claim")
			}
		}
		count = len(active)
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("claim.revoked_count", count))
	r.addRevocations(req.Purpose, "bulk", count)
	r.logAudit(ctx, "claims_bulk_revoked",
		"purpose", string(req.Purpose),
		"operator_id", req.Actor.OperatorID.String(),
		"revoked_count", count,
	)
	return count, nil
}

// Active returns the ACTIVE claim for key.
func (r *Registry) Active(ctx context.Context, key models.Key) (*models.Claim, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	c, err := r.store.FindActive(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active claim for member and purpose")
		}
		return nil, translateStoreErr(err, "read active claim")
	}
	return c, nil
}

// ActiveByContainer lists the ACTIVE claims of a purpose in one container,
// oldest first.
func (r *Registry) ActiveByContainer(ctx context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*models.Claim, error) {
	if !purpose.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(purpose))
	}
	claims, err := r.store.ListActiveByContainer(ctx, purpose, containerID)
	if err != nil {
		return nil, translateStoreErr(err, "list claims")
	}
	return claims, nil
}

// ActiveByPurpose lists every ACTIVE claim of a purpose, oldest first.
func (r *Registry) ActiveByPurpose(ctx context.Context, purpose id.ClaimPurpose) ([]*models.Claim, error) {
	if !purpose.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(purpose))
	}
	claims, err := r.store.ListActiveByPurpose(ctx, purpose)
	if err != nil {
		return nil, translateStoreErr(err, "list claims")
	}
	return claims, nil
}

// History returns every claim ever made for key, REVOKED ones included.
func (r *Registry) History(ctx context.Context, key models.Key) ([]*models.Claim, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	claims, err := r.store.ListByKey(ctx, key)
	if err != nil {
		return nil, translateStoreErr(err, "list claim history")
	}
	return claims, nil
}

// translateStoreErr maps store failures to domain codes. Coded errors pass
// through. Anything unrecognised is treated as transient: the unit of work
// rolled back, so the caller may retry.
func translateStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}

// hookErr keeps coded hook errors and marks the rest retryable; nothing was
// revoked.
func hookErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation aborted")
}

func (r *Registry) logAudit(ctx context.Context, event string, attributes ...any) {
	if r.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	r.logger.InfoContext(ctx, event, args...)
}

func (r *Registry) logInfo(ctx context.Context, msg string, attributes ...any) {
	if r.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	r.logger.InfoContext(ctx, msg, attributes...)
}

func (r *Registry) incAttempt(purpose id.ClaimPurpose, outcome string) {
	if r.metrics != nil {
		r.metrics.IncAttempt(string(purpose), outcome)
	}
}

func (r *Registry) incInsertRetry() {
	if r.metrics != nil {
		r.metrics.IncInsertRetry()
	}
}

func (r *Registry) observeTx(op string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveTx(op, start)
	}
}

func (r *Registry) addRevocations(purpose id.ClaimPurpose, mode string, n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.AddRevocations(string(purpose), mode, n)
	}
}
