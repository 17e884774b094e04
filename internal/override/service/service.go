// Package service is the authorization and audit layer over every operation
// that releases a claim.
package service

import (
	"context"
	"log/slog"
	"strings"

	assignmentModels "frontdesk/internal/assignment/models"
	attendanceModels "frontdesk/internal/attendance/models"
	claimModels "frontdesk/internal/claim/models"
	opModels "frontdesk/internal/operator/models"
	"frontdesk/internal/override/metrics"
	"frontdesk/internal/override/models"
	"frontdesk/pkg/attrs"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	audit "frontdesk/pkg/platform/audit"
	"frontdesk/pkg/requestcontext"
)

// Assignment removes members from lists.
type Assignment interface {
	AuthorizeUnassign(ctx context.Context, listID id.ListID, actor *opModels.Operator) (*assignmentModels.List, error)
	Unassign(ctx context.Context, req assignmentModels.UnassignRequest) (*claimModels.Claim, error)
}

// Attendance revokes check-ins.
type Attendance interface {
	RevokeCheckIn(ctx context.Context, req attendanceModels.RevokeCheckInRequest) (*claimModels.Claim, error)
	RevokeAllCheckIns(ctx context.Context, req attendanceModels.RevokeAllCheckInsRequest) (int, error)
}

// ClaimReader finds the ACTIVE claim for a key.
type ClaimReader interface {
	Active(ctx context.Context, key claimModels.Key) (*claimModels.Claim, error)
}

// AuditPublisher persists override records; an error must abort the override.
type AuditPublisher interface {
	Emit(ctx context.Context, records ...audit.OverrideRecord) error
}

// AuditReader lists persisted override records.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.OverrideRecord, error)
}

type Service struct {
	assignment Assignment
	attendance Attendance
	claims     ClaimReader
	publisher  AuditPublisher
	records    AuditReader
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(assignment Assignment, attendance Attendance, claims ClaimReader, publisher AuditPublisher, records AuditReader, opts ...Option) *Service {
	s := &Service{
		assignment: assignment,
		attendance: attendance,
		claims:     claims,
		publisher:  publisher,
		records:    records,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RevokeClaim releases one ACTIVE claim after checking the actor's rights.
// The audit record is written in the revoking transaction.
func (s *Service) RevokeClaim(ctx context.Context, req models.RevokeClaimRequest) (*claimModels.Claim, error) {
	if req.Actor == nil || req.Actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	switch req.Purpose {
	case id.ClaimPurposeListAssignment:
		return s.removeFromList(ctx, req)
	case id.ClaimPurposeCheckIn:
		return s.revokeCheckIn(ctx, req)
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "invalid purpose: "+string(req.Purpose))
	}
}

func (s *Service) removeFromList(ctx context.Context, req models.RevokeClaimRequest) (*claimModels.Claim, error) {
	action := audit.ActionRemoveFromList
	listID, err := s.targetList(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.assignment.AuthorizeUnassign(ctx, listID, req.Actor); err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			s.logDenied(ctx, "action", string(action), "actor_id", req.Actor.ID.String(), "list_id", listID.String())
		}
		return nil, err
	}
	if err := claimModels.ValidateReason(req.Reason); err != nil {
		return nil, err
	}

	revoked, err := s.assignment.Unassign(ctx, assignmentModels.UnassignRequest{
		ListID:    listID,
		MemberID:  req.MemberID,
		Actor:     req.Actor,
		Reason:    strings.TrimSpace(req.Reason),
		OnRevoked: s.auditHook(action, req.Actor, req.Reason),
	})
	if err != nil {
		return nil, err
	}
	s.completed(ctx, action, req.Actor, 1)
	return revoked, nil
}

// targetList is the list named by the request, or the one currently holding
// the member.
func (s *Service) targetList(ctx context.Context, req models.RevokeClaimRequest) (id.ListID, error) {
	if req.ContainerID != nil {
		return id.ListID(*req.ContainerID), nil
	}
	c, err := s.claims.Active(ctx, claimModels.Key{MemberID: req.MemberID, Purpose: id.ClaimPurposeListAssignment})
	if err != nil {
		return id.ListID{}, err
	}
	return id.ListID(c.ContainerID), nil
}

func (s *Service) revokeCheckIn(ctx context.Context, req models.RevokeClaimRequest) (*claimModels.Claim, error) {
	action := audit.ActionRevokeCheckIn
	if !req.Actor.Can(opModels.PermRevokeCheckIns) {
		s.logDenied(ctx, "action", string(action), "actor_id", req.Actor.ID.String(), "member_id", req.MemberID.String())
		return nil, dErrors.New(dErrors.CodeForbidden, "revoking a check-in requires the revoke_check_ins permission")
	}
	if err := claimModels.ValidateReason(req.Reason); err != nil {
		return nil, err
	}

	revoked, err := s.attendance.RevokeCheckIn(ctx, attendanceModels.RevokeCheckInRequest{
		MemberID:    req.MemberID,
		ContainerID: req.ContainerID,
		Actor:       req.Actor,
		Reason:      strings.TrimSpace(req.Reason),
		OnRevoked:   s.auditHook(action, req.Actor, req.Reason),
	})
	if err != nil {
		return nil, err
	}
	s.completed(ctx, action, req.Actor, 1)
	return revoked, nil
}

// RevokeAll releases every check-in of the session. The confirmation code
// is checked before anything changes; one audit record is written per claim.
func (s *Service) RevokeAll(ctx context.Context, req models.BulkRevokeRequest) (int, error) {
	action := audit.ActionRevokeAllCheckIns
	if req.Actor == nil || req.Actor.ID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	if req.Purpose != id.ClaimPurposeCheckIn {
		return 0, dErrors.New(dErrors.CodeValidation, "bulk revoke is only available for check_in")
	}
	if !req.Actor.Can(opModels.PermBulkRevokeCheckIns) {
		s.logDenied(ctx, "action", string(action), "actor_id", req.Actor.ID.String())
		return 0, dErrors.New(dErrors.CodeForbidden, "bulk revoke requires the bulk_revoke_check_ins permission")
	}
	if err := claimModels.ValidateReason(req.Reason); err != nil {
		return 0, err
	}

	n, err := s.attendance.RevokeAllCheckIns(ctx, attendanceModels.RevokeAllCheckInsRequest{
		ConfirmationCode: req.ConfirmationCode,
		Actor:            req.Actor,
		Reason:           strings.TrimSpace(req.Reason),
		OnRevoked:        s.auditHook(action, req.Actor, req.Reason),
	})
	if err != nil {
		return 0, err
	}
	s.completed(ctx, action, req.Actor, n)
	return n, nil
}

// ListAudit returns recent override records, newest first.
func (s *Service) ListAudit(ctx context.Context, actor *opModels.Operator, limit int) ([]audit.OverrideRecord, error) {
	if actor == nil || actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	if !actor.Can(opModels.PermViewAudit) {
		s.logDenied(ctx, "action", "view_audit", "actor_id", actor.ID.String())
		return nil, dErrors.New(dErrors.CodeForbidden, "viewing the override audit requires the view_audit permission")
	}
	switch {
	case limit <= 0:
		limit = models.DefaultAuditLimit
	case limit > models.MaxAuditLimit:
		limit = models.MaxAuditLimit
	}
	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "override audit unavailable")
	}
	return records, nil
}

// auditHook builds the records for claims as they are revoked. It runs inside
// the revoking transaction, so a failed write leaves every claim ACTIVE.
func (s *Service) auditHook(action audit.Action, actor *opModels.Operator, reason string) claimModels.RevokeHook {
	reason = strings.TrimSpace(reason)
	return func(ctx context.Context, revoked []*claimModels.Claim) error {
		records := make([]audit.OverrideRecord, len(revoked))
		for i, c := range revoked {
			records[i] = audit.OverrideRecord{
				Action:      action,
				ClaimID:     c.ID,
				MemberID:    c.MemberID,
				Purpose:     c.Purpose,
				ContainerID: c.ContainerID,
				ActorID:     actor.ID,
				ActorName:   actor.Name(),
				Reason:      reason,
				RequestID:   requestcontext.RequestID(ctx),
			}
			if c.RevokedAt != nil {
				records[i].At = *c.RevokedAt
			}
		}
		return s.publisher.Emit(ctx, records...)
	}
}

func (s *Service) completed(ctx context.Context, action audit.Action, actor *opModels.Operator, n int) {
	if s.metrics != nil {
		s.metrics.IncOverride(string(action))
	}
	s.logAudit(ctx, "override_"+string(action),
		"actor_id", actor.ID.String(),
		"revoked_count", n,
	)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}

// logDenied records a refused override. Denials are never silent.
func (s *Service) logDenied(ctx context.Context, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", "override_denied", "log_type", "security")
	if s.logger != nil {
		s.logger.WarnContext(ctx, "override denied", args...)
	}
	if s.metrics != nil {
		s.metrics.IncDenied(attrs.ExtractString(attributes, "action"))
	}
}
