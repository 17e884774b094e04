package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assignmentModels "frontdesk/internal/assignment/models"
	assignmentService "frontdesk/internal/assignment/service"
	assignmentStore "frontdesk/internal/assignment/store"
	attendanceService "frontdesk/internal/attendance/service"
	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	memberModels "frontdesk/internal/member/models"
	memberStore "frontdesk/internal/member/store"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/testutil"
)

type fixture struct {
	router     chi.Router
	assignment *assignmentService.Service
	session    uuid.UUID
	member     id.MemberID
	ana        *opModels.Operator
	bruno      *opModels.Operator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	directory := memberStore.NewInMemoryDirectory()
	claims := claimStore.NewInMemoryStore()
	registry := claimService.New(claimService.NewShardedTx(claims, time.Second), claims, directory)
	session := uuid.New()

	member := id.MemberID(uuid.New())
	require.NoError(t, directory.Put(context.Background(), &memberModels.Member{
		ID: member, MemberNumber: "301", NationalID: "301", FullName: "Rosa Méndez",
		Flags: memberModels.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: true, FederationCurrent: true, LoanCurrent: false},
	}))

	assignment := assignmentService.New(assignmentStore.NewInMemoryListStore(), registry, directory)
	r := chi.NewRouter()
	New(
		assignment,
		attendanceService.New(registry, directory, id.SessionID(session), "CONFIRMAR"),
		registry,
		slog.New(slog.DiscardHandler),
	).Register(r)

	return &fixture{
		router:     r,
		assignment: assignment,
		session:    session,
		member:     member,
		ana:        &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "ana", DisplayName: "Ana", Role: opModels.RoleOperator},
		bruno:      &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "bruno", DisplayName: "Bruno", Role: opModels.RoleOperator},
	}
}

func (f *fixture) claim(t *testing.T, op *opModels.Operator, body map[string]any) *http.Response {
	t.Helper()
	req := testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), op)
	return testutil.DoRequest(f.router, req).Result()
}

func TestHandleClaimListAssignment(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"member_id": f.member.String(), "purpose": "list_assignment"}

	t.Run("first operator wins", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), f.ana))
		testutil.AssertStatusOK(t, rr)
		res := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "claimed", (*res)["outcome"])
		assert.Equal(t, "voice_only", (*res)["eligibility"])
		assert.Equal(t, "My list", (*res)["list_name"])
	})

	t.Run("replay by the same operator is already_held", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), f.ana))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "outcome", "already_held")
	})

	t.Run("replay naming another list reports the list holding the member", func(t *testing.T) {
		sur, err := f.assignment.CreateList(context.Background(), f.ana, assignmentModels.CreateListRequest{Name: "Barrio Sur"})
		require.NoError(t, err)

		replay := map[string]any{"member_id": f.member.String(), "purpose": "list_assignment", "container_id": sur.ID.String()}
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", replay), f.ana))
		testutil.AssertStatusOK(t, rr)
		res := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "already_held", (*res)["outcome"])
		assert.Equal(t, "My list", (*res)["list_name"])
		claim := (*res)["claim"].(map[string]any)
		assert.NotEqual(t, sur.ID.String(), claim["container_id"])
	})

	t.Run("second operator gets a conflict naming the holder", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), f.bruno))
		testutil.AssertStatus(t, rr, http.StatusConflict)
		res := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "conflict", (*res)["error"])
		assert.Equal(t, "Ana", (*res)["holder_name"])
		assert.Equal(t, "My list", (*res)["container_name"])
		assert.NotEmpty(t, (*res)["claimed_at"])
		existing := (*res)["existing_claim"].(map[string]any)
		assert.Equal(t, f.member.String(), existing["member_id"])
	})

	t.Run("unknown member is 404", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", map[string]any{
			"member_id": uuid.NewString(), "purpose": "list_assignment",
		}), f.ana))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleClaimCheckIn(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"member_id": f.member.String(), "purpose": "check_in"}

	t.Run("check-in is independent of list assignment", func(t *testing.T) {
		resp := f.claim(t, f.bruno, map[string]any{"member_id": f.member.String(), "purpose": "list_assignment"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), f.ana))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "outcome", "claimed")
	})

	t.Run("second desk sees the assembly as container", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", body), f.bruno))
		testutil.AssertStatus(t, rr, http.StatusConflict)
		res := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "Assembly", (*res)["container_name"])
		assert.Equal(t, "Ana", (*res)["holder_name"])
	})

	t.Run("another session id is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.WithOperator(testutil.NewJSONRequest(t, http.MethodPost, "/claims", map[string]any{
			"member_id": f.member.String(), "purpose": "check_in", "container_id": uuid.NewString(),
		}), f.ana))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestHandleClaimValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing member", `{"purpose":"check_in"}`},
		{"bad purpose", `{"member_id":"` + f.member.String() + `","purpose":"vote"}`},
		{"unknown field", `{"member_id":"` + f.member.String() + `","purpose":"check_in","force":true}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.WithOperator(testutil.NewRequestWithBody(t, http.MethodPost, "/claims", tc.body), f.ana)
			testutil.AssertStatus(t, testutil.DoRequest(f.router, req), http.StatusBadRequest)
		})
	}

	t.Run("anonymous is 401", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/claims", map[string]any{
			"member_id": f.member.String(), "purpose": "check_in",
		}))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})
}

func TestHandleHistory(t *testing.T) {
	f := newFixture(t)
	resp := f.claim(t, f.ana, map[string]any{"member_id": f.member.String(), "purpose": "check_in"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := testutil.WithOperator(testutil.NewRequest(t, http.MethodGet, "/claims/history?member_id="+f.member.String()+"&purpose=check_in"), f.bruno)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)
	res := testutil.UnmarshalResponse[map[string][]map[string]any](t, rr)
	require.Len(t, (*res)["claims"], 1)
	assert.Equal(t, "active", (*res)["claims"][0]["status"])
	assert.Equal(t, f.session.String(), (*res)["claims"][0]["container_id"])
}
