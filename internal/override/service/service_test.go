package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	assignmentModels "frontdesk/internal/assignment/models"
	assignmentService "frontdesk/internal/assignment/service"
	assignmentStore "frontdesk/internal/assignment/store"
	attendanceService "frontdesk/internal/attendance/service"
	claimModels "frontdesk/internal/claim/models"
	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	memberModels "frontdesk/internal/member/models"
	memberStore "frontdesk/internal/member/store"
	opModels "frontdesk/internal/operator/models"
	"frontdesk/internal/override/metrics"
	"frontdesk/internal/override/models"
	"frontdesk/internal/override/service/mocks"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	audit "frontdesk/pkg/platform/audit"
	"frontdesk/pkg/platform/audit/publishers/compliance"
	auditStore "frontdesk/pkg/platform/audit/store/memory"
)

//go:generate mockgen -destination=mocks/audit_publisher.go -package=mocks frontdesk/internal/override/service AuditPublisher

const confirmation = "CONFIRMAR"

type OverrideSuite struct {
	suite.Suite
	directory  *memberStore.InMemoryDirectory
	registry   *claimService.Registry
	assignment *assignmentService.Service
	attendance *attendanceService.Service
	records    *auditStore.InMemoryStore
	metrics    *metrics.Metrics
	logs       *bytes.Buffer
	service    *Service

	desk  *opModels.Operator
	other *opModels.Operator
	admin *opModels.Operator
}

func TestOverrideSuite(t *testing.T) {
	suite.Run(t, new(OverrideSuite))
}

func (s *OverrideSuite) SetupTest() {
	s.directory = memberStore.NewInMemoryDirectory()
	claims := claimStore.NewInMemoryStore()
	s.registry = claimService.New(claimService.NewShardedTx(claims, time.Second), claims, s.directory)
	s.assignment = assignmentService.New(assignmentStore.NewInMemoryListStore(), s.registry, s.directory)
	s.attendance = attendanceService.New(s.registry, s.directory, id.SessionID(uuid.New()), confirmation)
	s.records = auditStore.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	s.service = s.newService(compliance.New(s.records))

	s.desk = &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "desk", DisplayName: "Desk", Role: opModels.RoleOperator}
	s.other = &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "other", DisplayName: "Other", Role: opModels.RoleOperator}
	s.admin = &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "admin", DisplayName: "Admin", Role: opModels.RoleAdmin}
}

func (s *OverrideSuite) newService(publisher AuditPublisher) *Service {
	return New(s.assignment, s.attendance, s.registry, publisher, s.records,
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		WithMetrics(s.metrics),
	)
}

func (s *OverrideSuite) addMember() id.MemberID {
	memberID := id.MemberID(uuid.New())
	s.Require().NoError(s.directory.Put(context.Background(), &memberModels.Member{
		ID: memberID, MemberNumber: memberID.String()[:8], NationalID: "1", FullName: "Member",
		Flags: memberModels.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: true, FederationCurrent: true, LoanCurrent: true},
	}))
	return memberID
}

func (s *OverrideSuite) checkIn(member id.MemberID) {
	res, err := s.attendance.CheckIn(context.Background(), member, s.desk)
	s.Require().NoError(err)
	s.Require().True(res.Outcome.Won())
}

func (s *OverrideSuite) auditCount() int {
	records, err := s.records.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	return len(records)
}

func (s *OverrideSuite) activeCheckIns() int {
	claims, err := s.registry.ActiveByPurpose(context.Background(), id.ClaimPurposeCheckIn)
	s.Require().NoError(err)
	return len(claims)
}

func (s *OverrideSuite) TestForbiddenOverrideWritesNoAudit() {
	ctx := context.Background()
	member := s.addMember()
	s.checkIn(member)

	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockAuditPublisher(ctrl)
	svc := s.newService(publisher)

	_, err := svc.RevokeClaim(ctx, models.RevokeClaimRequest{
		MemberID: member, Purpose: id.ClaimPurposeCheckIn, Actor: s.desk, Reason: "mistake",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = svc.RevokeAll(ctx, models.BulkRevokeRequest{
		Purpose: id.ClaimPurposeCheckIn, ConfirmationCode: confirmation, Actor: s.desk, Reason: "reset",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	s.Equal(1, s.activeCheckIns())
	s.Contains(s.logs.String(), `"event":"override_denied"`)
	s.Contains(s.logs.String(), `"log_type":"security"`)
	s.InDelta(1, promtest.ToFloat64(s.metrics.Denied.WithLabelValues(string(audit.ActionRevokeCheckIn))), 0)
	s.InDelta(1, promtest.ToFloat64(s.metrics.Denied.WithLabelValues(string(audit.ActionRevokeAllCheckIns))), 0)
}

func (s *OverrideSuite) TestAuditFailureAbortsRevoke() {
	ctx := context.Background()
	member := s.addMember()
	s.checkIn(member)

	ctrl := gomock.NewController(s.T())
	publisher := mocks.NewMockAuditPublisher(ctrl)
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))
	svc := s.newService(publisher)

	_, err := svc.RevokeClaim(ctx, models.RevokeClaimRequest{
		MemberID: member, Purpose: id.ClaimPurposeCheckIn, Actor: s.admin, Reason: "mistake",
	})
	s.Require().Error(err)
	s.True(dErrors.IsRetryable(err))
	s.Equal(1, s.activeCheckIns())
}

func (s *OverrideSuite) TestRevokeCheckInIsAudited() {
	ctx := s.T().Context()
	member := s.addMember()
	s.checkIn(member)

	revoked, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
		MemberID: member, Purpose: id.ClaimPurposeCheckIn, Actor: s.admin, Reason: "  left the room ",
	})
	s.Require().NoError(err)
	s.Equal(claimModels.StatusRevoked, revoked.Status)

	records, err := s.records.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	r := records[0]
	s.Equal(audit.ActionRevokeCheckIn, r.Action)
	s.Equal(revoked.ID, r.ClaimID)
	s.Equal(s.admin.ID, r.ActorID)
	s.Equal("left the room", r.Reason)
	s.True(revoked.RevokedAt.Equal(r.At))

	history, err := s.registry.History(ctx, claimModels.Key{MemberID: member, Purpose: id.ClaimPurposeCheckIn})
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("left the room", history[0].RevokeReason)
}

func (s *OverrideSuite) TestBulkRevoke() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.checkIn(s.addMember())
	}

	s.Run("list assignments cannot be bulk revoked", func() {
		_, err := s.service.RevokeAll(ctx, models.BulkRevokeRequest{
			Purpose: id.ClaimPurposeListAssignment, ConfirmationCode: confirmation, Actor: s.admin, Reason: "reset",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("wrong code changes nothing", func() {
		_, err := s.service.RevokeAll(ctx, models.BulkRevokeRequest{
			Purpose: id.ClaimPurposeCheckIn, ConfirmationCode: "nope", Actor: s.admin, Reason: "reset",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(3, s.activeCheckIns())
		s.Zero(s.auditCount())
	})

	s.Run("correct code revokes and audits every check-in", func() {
		n, err := s.service.RevokeAll(ctx, models.BulkRevokeRequest{
			Purpose: id.ClaimPurposeCheckIn, ConfirmationCode: confirmation, Actor: s.admin, Reason: "session restarted",
		})
		s.Require().NoError(err)
		s.Equal(3, n)
		s.Zero(s.activeCheckIns())
		s.Equal(3, s.auditCount())
	})
}

func (s *OverrideSuite) TestRemoveFromList() {
	ctx := context.Background()
	member := s.addMember()
	res, err := s.assignment.Assign(ctx, assignmentModels.AssignRequest{MemberID: member, Operator: s.desk})
	s.Require().NoError(err)

	s.Run("another operator without permission is refused", func() {
		_, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
			MemberID: member, Purpose: id.ClaimPurposeListAssignment, Actor: s.other, Reason: "mine",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Zero(s.auditCount())
	})

	s.Run("blank reason is a validation error", func() {
		_, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
			MemberID: member, Purpose: id.ClaimPurposeListAssignment, Actor: s.desk, Reason: "   ",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("owner removes without naming the list", func() {
		revoked, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
			MemberID: member, Purpose: id.ClaimPurposeListAssignment, Actor: s.desk, Reason: "moved away",
		})
		s.Require().NoError(err)
		s.Equal(res.Outcome.Claim.ID, revoked.ID)

		records, err := s.records.ListRecent(ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal(audit.ActionRemoveFromList, records[0].Action)
		s.Equal(res.List.ContainerID(), records[0].ContainerID)
	})

	s.Run("the member can then be assigned by someone else", func() {
		again, err := s.assignment.Assign(ctx, assignmentModels.AssignRequest{MemberID: member, Operator: s.other})
		s.Require().NoError(err)
		s.Equal(claimModels.OutcomeClaimed, again.Outcome.Kind)
	})

	s.Run("no active claim is not found", func() {
		_, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
			MemberID: s.addMember(), Purpose: id.ClaimPurposeListAssignment, Actor: s.admin, Reason: "x",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *OverrideSuite) TestListAudit() {
	ctx := context.Background()
	member := s.addMember()
	s.checkIn(member)
	_, err := s.service.RevokeClaim(ctx, models.RevokeClaimRequest{
		MemberID: member, Purpose: id.ClaimPurposeCheckIn, Actor: s.admin, Reason: "duplicate",
	})
	s.Require().NoError(err)

	_, err = s.service.ListAudit(ctx, s.desk, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	records, err := s.service.ListAudit(ctx, s.admin, 0)
	s.Require().NoError(err)
	s.Len(records, 1)
}
