// Package service checks members into the assembly session.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"frontdesk/internal/attendance/models"
	claimMetrics "frontdesk/internal/claim/metrics"
	claimModels "frontdesk/internal/claim/models"
	memberModels "frontdesk/internal/member/models"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
	"frontdesk/pkg/requestcontext"
)

// ClaimRegistry is the part of the claim registry attendance needs.
type ClaimRegistry interface {
	TryClaim(ctx context.Context, req claimModels.ClaimRequest) (*claimModels.Outcome, error)
	Revoke(ctx context.Context, req claimModels.RevokeRequest) (*claimModels.Claim, error)
	RevokeAll(ctx context.Context, req claimModels.BulkRevokeRequest) (int, error)
	Active(ctx context.Context, key claimModels.Key) (*claimModels.Claim, error)
}

// FlagReader reads a member's current flags.
type FlagReader interface {
	GetFlags(ctx context.Context, memberID id.MemberID) (memberModels.Flags, error)
}

type Service struct {
	registry         ClaimRegistry
	members          FlagReader
	session          uuid.UUID
	confirmationCode string
	logger           *slog.Logger
	metrics          *claimMetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *claimMetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates the attendance service for one assembly session. An empty
// confirmationCode disables bulk revocation.
func New(registry ClaimRegistry, members FlagReader, session id.SessionID, confirmationCode string, opts ...Option) *Service {
	s := &Service{
		registry:         registry,
		members:          members,
		session:          uuid.UUID(session),
		confirmationCode: confirmationCode,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionID is the container every check-in claim lives in.
func (s *Service) SessionID() uuid.UUID {
	return s.session
}

// CheckIn marks the member present. The member's eligibility is read fresh
// and returned with a successful claim.
func (s *Service) CheckIn(ctx context.Context, memberID id.MemberID, op *opModels.Operator) (*models.CheckInResult, error) {
	if op == nil || op.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	outcome, err := s.registry.TryClaim(ctx, claimModels.ClaimRequest{
		MemberID:    memberID,
		Purpose:     id.ClaimPurposeCheckIn,
		Holder:      claimModels.Holder{OperatorID: op.ID, DisplayName: op.Name()},
		ContainerID: s.session,
	})
	if err != nil {
		return nil, err
	}

	result := &models.CheckInResult{Outcome: outcome}
	if outcome.IsConflict() {
		result.ContainerName = models.AssemblyName
		result.HolderName = outcome.Claim.Holder.DisplayName
		return result, nil
	}

	flags, err := s.members.GetFlags(ctx, memberID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "checked in, eligibility unavailable; retry to read it")
	}
	result.Eligibility = memberModels.EligibilityOf(flags)
	return result, nil
}

// RevokeCheckIn undoes one check-in. OnRevoked must record the revocation.
func (s *Service) RevokeCheckIn(ctx context.Context, req models.RevokeCheckInRequest) (*claimModels.Claim, error) {
	if req.OnRevoked == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "revoking a check-in requires an audit hook")
	}
	if req.Actor == nil || req.Actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	container := s.session
	if req.ContainerID != nil {
		container = *req.ContainerID
	}
	return s.registry.Revoke(ctx, claimModels.RevokeRequest{
		Key:         claimModels.Key{MemberID: req.MemberID, Purpose: id.ClaimPurposeCheckIn},
		ContainerID: &container,
		Actor:       claimModels.Holder{OperatorID: req.Actor.ID, DisplayName: req.Actor.Name()},
		Reason:      req.Reason,
		OnRevoked:   req.OnRevoked,
	})
}

// RevokeAllCheckIns revokes every check-in in one transaction. A wrong
// confirmation code is a validation error and revokes nothing.
func (s *Service) RevokeAllCheckIns(ctx context.Context, req models.RevokeAllCheckInsRequest) (int, error) {
	if req.OnRevoked == nil {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "bulk revoke requires an audit hook")
	}
	if req.Actor == nil || req.Actor.ID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	if !s.codeMatches(req.ConfirmationCode) {
		if s.metrics != nil {
			s.metrics.IncBulkRevokeRejected()
		}
		s.logger.WarnContext(ctx, "bulk check-in revoke rejected",
			"operator_id", req.Actor.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return 0, dErrors.New(dErrors.CodeValidation, "confirmation code does not match; nothing was revoked")
	}
	return s.registry.RevokeAll(ctx, claimModels.BulkRevokeRequest{
		Purpose:   id.ClaimPurposeCheckIn,
		Actor:     claimModels.Holder{OperatorID: req.Actor.ID, DisplayName: req.Actor.Name()},
		Reason:    req.Reason,
		OnRevoked: req.OnRevoked,
	})
}

func (s *Service) codeMatches(supplied string) bool {
	if s.confirmationCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.confirmationCode)) == 1
}

// Status reports whether the member is checked in and their current
// eligibility.
func (s *Service) Status(ctx context.Context, memberID id.MemberID) (*models.Status, error) {
	flags, err := s.members.GetFlags(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "member directory unavailable")
	}
	status := &models.Status{MemberID: memberID, Eligibility: memberModels.EligibilityOf(flags)}

	c, err := s.registry.Active(ctx, claimModels.Key{MemberID: memberID, Purpose: id.ClaimPurposeCheckIn})
	switch {
	case err == nil:
		status.CheckedIn = true
		status.Claim = c
	case dErrors.HasCode(err, dErrors.CodeNotFound):
	default:
		return nil, err
	}
	return status, nil
}
