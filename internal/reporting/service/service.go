// Package service derives list and attendance counts from ACTIVE claims and
// the members' current flags. Nothing here is stored; every read recounts.
package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	assignmentModels "frontdesk/internal/assignment/models"
	claimModels "frontdesk/internal/claim/models"
	memberModels "frontdesk/internal/member/models"
	"frontdesk/internal/reporting/metrics"
	"frontdesk/internal/reporting/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
	"frontdesk/pkg/requestcontext"
)

// ClaimReader lists ACTIVE claims.
type ClaimReader interface {
	ActiveByContainer(ctx context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*claimModels.Claim, error)
}

// FlagReader reads current flags for many members at once.
type FlagReader interface {
	GetFlagsBatch(ctx context.Context, ids []id.MemberID) (map[id.MemberID]memberModels.Flags, error)
}

// ListReader reads list identities.
type ListReader interface {
	FindByID(ctx context.Context, listID id.ListID) (*assignmentModels.List, error)
	ListAll(ctx context.Context) ([]*assignmentModels.List, error)
}

// rankingConcurrency bounds the per-list fan-out of OperatorRanking.
const rankingConcurrency = 8

type Service struct {
	claims  ClaimReader
	members FlagReader
	lists   ListReader
	session uuid.UUID
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func New(claims ClaimReader, members FlagReader, lists ListReader, session id.SessionID, opts ...Option) *Service {
	s := &Service{
		claims:  claims,
		members: members,
		lists:   lists,
		session: uuid.UUID(session),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAggregate counts the list's ACTIVE assignments split by eligibility.
func (s *Service) ListAggregate(ctx context.Context, listID id.ListID) (*models.ListAggregate, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveReportLatency("list_aggregate", time.Since(start)) }()

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
	return s.aggregate(ctx, list)
}

// OperatorRanking aggregates every list and orders them by total, then by
// full-rights count.
func (s *Service) OperatorRanking(ctx context.Context) (*models.Ranking, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveReportLatency("ranking", time.Since(start)) }()

	lists, err := s.lists.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load lists")
	}

	results := make([]*models.ListAggregate, len(lists))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rankingConcurrency)
	for i, list := range lists {
		g.Go(func() error {
			agg, err := s.aggregate(gctx, list)
			if err != nil {
				return err
			}
			results[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *models.ListAggregate) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		if c := cmp.Compare(b.FullRights, a.FullRights); c != 0 {
			return c
		}
		return cmp.Compare(a.ListName, b.ListName)
	})
	return &models.Ranking{Lists: results, GeneratedAt: requestcontext.Now(ctx)}, nil
}

// AttendanceSummary counts the members checked in to the current session.
func (s *Service) AttendanceSummary(ctx context.Context) (*models.AttendanceSummary, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveReportLatency("attendance", time.Since(start)) }()

	counts, err := s.count(ctx, id.ClaimPurposeCheckIn, s.session)
	if err != nil {
		return nil, err
	}
	return &models.AttendanceSummary{
		SessionID:   s.session,
		GeneratedAt: requestcontext.Now(ctx),
		Counts:      counts,
	}, nil
}

func (s *Service) aggregate(ctx context.Context, list *assignmentModels.List) (*models.ListAggregate, error) {
	counts, err := s.count(ctx, id.ClaimPurposeListAssignment, list.ContainerID())
	if err != nil {
		return nil, err
	}
	return &models.ListAggregate{
		ListID:           list.ID,
		ListName:         list.Name,
		OwnerOperatorID:  list.OwnerOperatorID,
		OwnerDisplayName: list.OwnerDisplayName,
		Counts:           counts,
	}, nil
}

// count reads the container's ACTIVE claims and the claimed members' flags.
// A member the directory no longer returns counts as voice-only.
func (s *Service) count(ctx context.Context, purpose id.ClaimPurpose, container uuid.UUID) (models.Counts, error) {
	var counts models.Counts
	claims, err := s.claims.ActiveByContainer(ctx, purpose, container)
	if err != nil {
		return counts, err
	}
	if len(claims) == 0 {
		return counts, nil
	}

	ids := make([]id.MemberID, len(claims))
	for i, c := range claims {
		ids[i] = c.MemberID
	}
	flags, err := s.members.GetFlagsBatch(ctx, ids)
	if err != nil {
		return counts, dErrors.Wrap(err, dErrors.CodeUnavailable, "member directory unavailable")
	}
	for _, c := range claims {
		f, ok := flags[c.MemberID]
		if !ok {
			s.logger.WarnContext(ctx, "claimed member missing from directory",
				"member_id", c.MemberID.String(),
				"container_id", container.String(),
			)
			counts.Add(id.EligibilityVoiceOnly)
			continue
		}
		counts.Add(memberModels.EligibilityOf(f))
	}
	return counts, nil
}
