package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"frontdesk/internal/assignment/models"
	"frontdesk/internal/assignment/store"
	claimModels "frontdesk/internal/claim/models"
	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	memberModels "frontdesk/internal/member/models"
	memberStore "frontdesk/internal/member/store"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
)

type AssignmentSuite struct {
	suite.Suite
	directory *memberStore.InMemoryDirectory
	lists     *store.InMemoryListStore
	registry  *claimService.Registry
	service   *Service
	alice     *opModels.Operator
	bruno     *opModels.Operator
}

func TestAssignmentSuite(t *testing.T) {
	suite.Run(t, new(AssignmentSuite))
}

func (s *AssignmentSuite) SetupTest() {
	s.directory = memberStore.NewInMemoryDirectory()
	s.lists = store.NewInMemoryListStore()
	claims := claimStore.NewInMemoryStore()
	s.registry = claimService.New(claimService.NewShardedTx(claims, time.Second), claims, s.directory)
	s.service = New(s.lists, s.registry, s.directory)
	s.alice = newOperator("alice", "Alice Rey")
	s.bruno = newOperator("bruno", "Bruno Paz")
}

func newOperator(username, name string, perms ...opModels.Permission) *opModels.Operator {
	return &opModels.Operator{
		ID:          id.OperatorID(uuid.New()),
		Username:    username,
		DisplayName: name,
		Role:        opModels.RoleOperator,
		Permissions: perms,
	}
}

func (s *AssignmentSuite) addMember(number string, eligible bool) id.MemberID {
	m := &memberModels.Member{
		ID:           id.MemberID(uuid.New()),
		MemberNumber: number,
		NationalID:   "9" + number,
		FullName:     "Member " + number,
		Flags:        memberModels.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: true, FederationCurrent: true, LoanCurrent: eligible},
	}
	s.Require().NoError(s.directory.Put(context.Background(), m))
	return m.ID
}

func auditHook(calls *int) claimModels.RevokeHook {
	return func(context.Context, []*claimModels.Claim) error {
		*calls++
		return nil
	}
}

func (s *AssignmentSuite) TestEnsureDefaultListIsIdempotent() {
	defer goleak.VerifyNone(s.T())
	ctx := context.Background()

	const n = 20
	got := make([]*models.List, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = s.service.EnsureDefaultList(ctx, s.alice)
		}(i)
	}
	wg.Wait()

	for _, l := range got {
		s.Require().NotNil(l)
		s.Equal(got[0].ID, l.ID)
	}
	lists, err := s.service.MyLists(ctx, s.alice)
	s.Require().NoError(err)
	s.Len(lists, 1)
	s.Equal("Alice Rey", lists[0].OwnerDisplayName)
}

func (s *AssignmentSuite) TestRacingOperatorsOneWinsWithNamedConflict() {
	defer goleak.VerifyNone(s.T())
	ctx := context.Background()
	member := s.addMember("100", true)

	aliceList, err := s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Centro"})
	s.Require().NoError(err)
	brunoList, err := s.service.CreateList(ctx, s.bruno, models.CreateListRequest{Name: "Cordón"})
	s.Require().NoError(err)

	results := make([]*models.AssignResult, 2)
	errs := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, req := range []models.AssignRequest{
		{MemberID: member, ListID: aliceList.ID, Operator: s.alice},
		{MemberID: member, ListID: brunoList.ID, Operator: s.bruno},
	} {
		wg.Add(1)
		go func(i int, req models.AssignRequest) {
			defer wg.Done()
			<-start
			results[i], errs[i] = s.service.Assign(ctx, req)
		}(i, req)
	}
	close(start)
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])

	var winner, loser *models.AssignResult
	for _, r := range results {
		if r.Outcome.Won() {
			winner = r
		} else {
			loser = r
		}
	}
	s.Require().NotNil(winner)
	s.Require().NotNil(loser)
	s.Equal(id.EligibilityFullRights, winner.Eligibility)
	s.True(loser.Outcome.IsConflict())
	s.Equal(winner.Outcome.Claim.ID, loser.Outcome.Claim.ID)
	s.True(winner.Outcome.Claim.ClaimedAt.Equal(loser.Outcome.Claim.ClaimedAt))
	s.Equal(winner.List.Name, loser.ContainerName)
	s.Equal(winner.List.OwnerDisplayName, loser.HolderName)
}

func (s *AssignmentSuite) TestDifferentMembersSameListBothSucceed() {
	ctx := context.Background()
	a := s.addMember("200", true)
	b := s.addMember("201", false)

	var wg sync.WaitGroup
	results := make([]*models.AssignResult, 2)
	for i, member := range []id.MemberID{a, b} {
		wg.Add(1)
		go func(i int, member id.MemberID) {
			defer wg.Done()
			results[i], _ = s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
		}(i, member)
	}
	wg.Wait()

	s.Require().NotNil(results[0])
	s.Require().NotNil(results[1])
	s.Equal(claimModels.OutcomeClaimed, results[0].Outcome.Kind)
	s.Equal(claimModels.OutcomeClaimed, results[1].Outcome.Kind)
	s.Equal(results[0].List.ID, results[1].List.ID)
	s.Equal(id.EligibilityVoiceOnly, results[1].Eligibility)

	members, err := s.service.ListMembers(ctx, results[0].List.ID)
	s.Require().NoError(err)
	s.Len(members, 2)
	s.True(members[0].Claim.ClaimedAt.Before(members[1].Claim.ClaimedAt))
}

func (s *AssignmentSuite) TestReplayBySameOperatorIsAlreadyHeld() {
	ctx := context.Background()
	member := s.addMember("300", true)

	first, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)
	again, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)

	s.Equal(claimModels.OutcomeAlreadyHeld, again.Outcome.Kind)
	s.Equal(first.Outcome.Claim.ID, again.Outcome.Claim.ID)
	s.True(first.Outcome.Claim.ClaimedAt.Equal(again.Outcome.Claim.ClaimedAt))
}

func (s *AssignmentSuite) TestAssignWithoutListUsesOwnedList() {
	ctx := context.Background()
	norte, err := s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Barrio Norte"})
	s.Require().NoError(err)
	_, err = s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Barrio Sur"})
	s.Require().NoError(err)

	res, err := s.service.Assign(ctx, models.AssignRequest{MemberID: s.addMember("350", true), Operator: s.alice})
	s.Require().NoError(err)
	s.Equal(claimModels.OutcomeClaimed, res.Outcome.Kind)
	s.Equal(norte.ID, res.List.ID)
	s.Equal(norte.ContainerID(), res.Outcome.Claim.ContainerID)

	lists, err := s.service.MyLists(ctx, s.alice)
	s.Require().NoError(err)
	s.Len(lists, 2)
	for _, l := range lists {
		s.False(l.IsDefault)
	}
}

func (s *AssignmentSuite) TestAssignWithoutListPrefersDefaultList() {
	ctx := context.Background()
	def, err := s.service.EnsureDefaultList(ctx, s.alice)
	s.Require().NoError(err)
	_, err = s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Barrio Norte"})
	s.Require().NoError(err)

	res, err := s.service.Assign(ctx, models.AssignRequest{MemberID: s.addMember("351", true), Operator: s.alice})
	s.Require().NoError(err)
	s.Equal(def.ID, res.List.ID)
}

func (s *AssignmentSuite) TestReplayIntoAnotherListReportsHoldingList() {
	ctx := context.Background()
	member := s.addMember("352", true)
	first, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)
	sur, err := s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Barrio Sur"})
	s.Require().NoError(err)

	again, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, ListID: sur.ID, Operator: s.alice})
	s.Require().NoError(err)

	s.Equal(claimModels.OutcomeAlreadyHeld, again.Outcome.Kind)
	s.Equal(first.Outcome.Claim.ID, again.Outcome.Claim.ID)
	s.Require().NotNil(again.List)
	s.Equal(first.List.ID, again.List.ID)
	s.Equal(models.DefaultListName, again.List.Name)
	s.Equal(again.List.ContainerID(), again.Outcome.Claim.ContainerID)

	members, err := s.service.ListMembers(ctx, sur.ID)
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *AssignmentSuite) TestAssignToAnotherOperatorsList() {
	ctx := context.Background()
	member := s.addMember("400", true)
	brunoList, err := s.service.EnsureDefaultList(ctx, s.bruno)
	s.Require().NoError(err)

	_, err = s.service.Assign(ctx, models.AssignRequest{MemberID: member, ListID: brunoList.ID, Operator: s.alice})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	supervisor := newOperator("sup", "Sonia", opModels.PermOverrideAssignments)
	res, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, ListID: brunoList.ID, Operator: supervisor})
	s.Require().NoError(err)
	s.True(res.Outcome.Won())

	_, err = s.service.Assign(ctx, models.AssignRequest{MemberID: member, ListID: id.ListID(uuid.New()), Operator: s.alice})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AssignmentSuite) TestUnassignThenReassignByAnotherOperator() {
	ctx := context.Background()
	member := s.addMember("500", true)

	first, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)
	s.Require().True(first.Outcome.Won())

	blocked, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.bruno})
	s.Require().NoError(err)
	s.True(blocked.Outcome.IsConflict())

	var hooks int
	revoked, err := s.service.Unassign(ctx, models.UnassignRequest{
		ListID:    first.List.ID,
		MemberID:  member,
		Actor:     s.alice,
		Reason:    "wrong list",
		OnRevoked: auditHook(&hooks),
	})
	s.Require().NoError(err)
	s.Equal(claimModels.StatusRevoked, revoked.Status)
	s.Equal(1, hooks)

	second, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.bruno})
	s.Require().NoError(err)
	s.Equal(claimModels.OutcomeClaimed, second.Outcome.Kind)
	s.NotEqual(first.Outcome.Claim.ID, second.Outcome.Claim.ID)
}

func (s *AssignmentSuite) TestUnassignRules() {
	ctx := context.Background()
	member := s.addMember("600", true)
	res, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)

	var hooks int
	s.Run("non-owner without permission is forbidden", func() {
		_, err := s.service.Unassign(ctx, models.UnassignRequest{
			ListID: res.List.ID, MemberID: member, Actor: s.bruno, Reason: "x", OnRevoked: auditHook(&hooks),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing audit hook is refused", func() {
		_, err := s.service.Unassign(ctx, models.UnassignRequest{
			ListID: res.List.ID, MemberID: member, Actor: s.alice, Reason: "x",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("member not on this list", func() {
		other, err := s.service.CreateList(ctx, s.alice, models.CreateListRequest{Name: "Otra"})
		s.Require().NoError(err)
		_, err = s.service.Unassign(ctx, models.UnassignRequest{
			ListID: other.ID, MemberID: member, Actor: s.alice, Reason: "x", OnRevoked: auditHook(&hooks),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Equal(0, hooks)
}

func (s *AssignmentSuite) TestListMembersReflectsCurrentFlags() {
	ctx := context.Background()
	member := s.addMember("700", true)
	res, err := s.service.Assign(ctx, models.AssignRequest{MemberID: member, Operator: s.alice})
	s.Require().NoError(err)

	s.Require().NoError(s.directory.UpdateFlags(ctx, member, memberModels.Flags{}))

	members, err := s.service.ListMembers(ctx, res.List.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(id.EligibilityVoiceOnly, members[0].Member.Eligibility)
	s.Len(members[0].Member.MissingFlags, 5)
}

func (s *AssignmentSuite) TestCreateListValidation() {
	_, err := s.service.CreateList(context.Background(), s.alice, models.CreateListRequest{Name: "   "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
