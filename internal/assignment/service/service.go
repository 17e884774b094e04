// Package service implements list assignment on top of the claim registry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/assignment/models"
	claimModels "frontdesk/internal/claim/models"
	memberModels "frontdesk/internal/member/models"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
	"frontdesk/pkg/requestcontext"
)

// ListStore persists lists.
type ListStore interface {
	EnsureDefault(ctx context.Context, owner id.OperatorID, ownerName string, now time.Time) (*models.List, error)
	Create(ctx context.Context, l *models.List) error
	FindByID(ctx context.Context, listID id.ListID) (*models.List, error)
	ListByOwner(ctx context.Context, owner id.OperatorID) ([]*models.List, error)
}

// ClaimRegistry is the part of the claim registry assignment needs.
type ClaimRegistry interface {
	TryClaim(ctx context.Context, req claimModels.ClaimRequest) (*claimModels.Outcome, error)
	Revoke(ctx context.Context, req claimModels.RevokeRequest) (*claimModels.Claim, error)
	ActiveByContainer(ctx context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*claimModels.Claim, error)
}

// MemberReader reads current member data.
type MemberReader interface {
	GetFlags(ctx context.Context, memberID id.MemberID) (memberModels.Flags, error)
	FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*memberModels.Member, error)
}

type Service struct {
	lists    ListStore
	registry ClaimRegistry
	members  MemberReader
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(lists ListStore, registry ClaimRegistry, members MemberReader, opts ...Option) *Service {
	s := &Service{
		lists:    lists,
		registry: registry,
		members:  members,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDefaultList returns the list an assignment without a list goes to:
// the operator's default list, else their oldest list. A default list is
// created only when the operator owns none. Safe to call on every assignment.
func (s *Service) EnsureDefaultList(ctx context.Context, op *opModels.Operator) (*models.List, error) {
	if op == nil || op.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	owned, err := s.lists.ListByOwner(ctx, op.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list lists")
	}
	if l := preferredList(owned); l != nil {
		return l, nil
	}
	l, err := s.lists.EnsureDefault(ctx, op.ID, op.Name(), requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to provision default list")
	}
	return l, nil
}

// preferredList picks the default list, or the first of owned (oldest first).
func preferredList(owned []*models.List) *models.List {
	for _, l := range owned {
		if l.IsDefault {
			return l
		}
	}
	if len(owned) > 0 {
		return owned[0]
	}
	return nil
}

// Assign claims a member for the operator's list. Losing to another list is
// reported in the result, enriched with that list's name and owner.
func (s *Service) Assign(ctx context.Context, req models.AssignRequest) (*models.AssignResult, error) {
	list, err := s.targetList(ctx, req)
	if err != nil {
		return nil, err
	}

	outcome, err := s.registry.TryClaim(ctx, claimModels.ClaimRequest{
		MemberID:    req.MemberID,
		Purpose:     id.ClaimPurposeListAssignment,
		Holder:      claimModels.Holder{OperatorID: req.Operator.ID, DisplayName: req.Operator.Name()},
		ContainerID: list.ContainerID(),
	})
	if err != nil {
		return nil, err
	}

	result := &models.AssignResult{Outcome: outcome, List: list}
	if outcome.Kind == claimModels.OutcomeAlreadyHeld && outcome.Claim.ContainerID != list.ContainerID() {
		result.List = s.holdingList(ctx, outcome.Claim)
	}
	if outcome.IsConflict() {
		result.ContainerName, result.HolderName = s.describeContainer(ctx, outcome.Claim)
		return result, nil
	}

	flags, err := s.members.GetFlags(ctx, req.MemberID)
	if err != nil {
		s.logger.WarnContext(ctx, "eligibility unavailable after assignment",
			"member_id", req.MemberID.String(),
			"error", err,
		)
		return result, nil
	}
	result.Eligibility = memberModels.EligibilityOf(flags)
	return result, nil
}

func (s *Service) targetList(ctx context.Context, req models.AssignRequest) (*models.List, error) {
	if req.Operator == nil || req.Operator.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	if req.MemberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "member_id is required")
	}
	if req.ListID.IsNil() {
		return s.EnsureDefaultList(ctx, req.Operator)
	}
	list, err := s.findList(ctx, req.ListID)
	if err != nil {
		return nil, err
	}
	if !list.OwnedBy(req.Operator.ID) && !req.Operator.Can(opModels.PermOverrideAssignments) {
		return nil, dErrors.New(dErrors.CodeForbidden, "list belongs to another operator")
	}
	return list, nil
}

// holdingList loads the list a replayed claim actually sits in. It returns
// nil rather than the requested list when that list cannot be read.
func (s *Service) holdingList(ctx context.Context, c *claimModels.Claim) *models.List {
	list, err := s.lists.FindByID(ctx, id.ListID(c.ContainerID))
	if err != nil {
		s.logger.WarnContext(ctx, "held claim container not found",
			"claim_id", c.ID.String(),
			"container_id", c.ContainerID.String(),
			"error", err,
		)
		return nil
	}
	return list
}

// describeContainer names the list holding a winning claim and its owner.
// A container that is no longer a known list falls back to the holder.
func (s *Service) describeContainer(ctx context.Context, c *claimModels.Claim) (string, string) {
	list, err := s.lists.FindByID(ctx, id.ListID(c.ContainerID))
	if err != nil {
		s.logger.WarnContext(ctx, "winning claim container not found",
			"claim_id", c.ID.String(),
			"container_id", c.ContainerID.String(),
			"error", err,
		)
		return "", c.Holder.DisplayName
	}
	return list.Name, list.OwnerDisplayName
}

// AuthorizeUnassign loads the list and checks the actor may remove members
// from it: the owner, or anyone holding override_assignments.
func (s *Service) AuthorizeUnassign(ctx context.Context, listID id.ListID, actor *opModels.Operator) (*models.List, error) {
	if actor == nil || actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !list.OwnedBy(actor.ID) && !actor.Can(opModels.PermOverrideAssignments) {
		return nil, dErrors.New(dErrors.CodeForbidden, "removing members from this list requires ownership or override permission")
	}
	return list, nil
}

// Unassign revokes the member's assignment to the list. It is the only way a
// list assignment is released and always carries an audit hook.
func (s *Service) Unassign(ctx context.Context, req models.UnassignRequest) (*claimModels.Claim, error) {
	if req.OnRevoked == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unassign requires an audit hook")
	}
	list, err := s.AuthorizeUnassign(ctx, req.ListID, req.Actor)
	if err != nil {
		return nil, err
	}
	container := list.ContainerID()
	return s.registry.Revoke(ctx, claimModels.RevokeRequest{
		Key:         claimModels.Key{MemberID: req.MemberID, Purpose: id.ClaimPurposeListAssignment},
		ContainerID: &container,
		Actor:       claimModels.Holder{OperatorID: req.Actor.ID, DisplayName: req.Actor.Name()},
		Reason:      req.Reason,
		OnRevoked:   req.OnRevoked,
	})
}

// CreateList adds a named list owned by op.
func (s *Service) CreateList(ctx context.Context, op *opModels.Operator, req models.CreateListRequest) (*models.List, error) {
	if op == nil || op.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "operator required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := &models.List{
		ID:               id.ListID(uuid.New()),
		OwnerOperatorID:  op.ID,
		OwnerDisplayName: op.Name(),
		Name:             req.Name,
		Description:      req.Description,
		CreatedAt:        requestcontext.Now(ctx).UTC(),
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create list")
	}
	s.logger.InfoContext(ctx, "list created",
		"list_id", l.ID.String(),
		"operator_id", op.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return l, nil
}

// MyLists returns the operator's lists, provisioning a default one for an
// operator who owns none.
func (s *Service) MyLists(ctx context.Context, op *opModels.Operator) ([]*models.List, error) {
	if _, err := s.EnsureDefaultList(ctx, op); err != nil {
		return nil, err
	}
	lists, err := s.lists.ListByOwner(ctx, op.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list lists")
	}
	return lists, nil
}

// ListMembers returns the members on a list in claim order, each tagged
// with eligibility from its current flags.
func (s *Service) ListMembers(ctx context.Context, listID id.ListID) ([]*models.ListMember, error) {
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}
	claims, err := s.registry.ActiveByContainer(ctx, id.ClaimPurposeListAssignment, list.ContainerID())
	if err != nil {
		return nil, err
	}
	ids := make([]id.MemberID, len(claims))
	for i, c := range claims {
		ids[i] = c.MemberID
	}
	members, err := s.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "member directory unavailable")
	}

	out := make([]*models.ListMember, 0, len(claims))
	for _, c := range claims {
		m, ok := members[c.MemberID]
		if !ok {
			s.logger.WarnContext(ctx, "claimed member missing from directory",
				"member_id", c.MemberID.String(),
				"list_id", listID.String(),
			)
			continue
		}
		out = append(out, &models.ListMember{Member: memberModels.NewView(m), Claim: c})
	}
	return out, nil
}

func (s *Service) findList(ctx context.Context, listID id.ListID) (*models.List, error) {
	if listID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "list_id is required")
	}
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "list not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load list")
	}
	return list, nil
}
