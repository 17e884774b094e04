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

	"frontdesk/internal/attendance/service"
	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	memberModels "frontdesk/internal/member/models"
	memberStore "frontdesk/internal/member/store"
	opModels "frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/testutil"
)

func TestHandleStatus(t *testing.T) {
	directory := memberStore.NewInMemoryDirectory()
	claims := claimStore.NewInMemoryStore()
	registry := claimService.New(claimService.NewShardedTx(claims, time.Second), claims, directory)
	svc := service.New(registry, directory, id.SessionID(uuid.New()), "CONFIRMAR")

	member := id.MemberID(uuid.New())
	require.NoError(t, directory.Put(context.Background(), &memberModels.Member{
		ID: member, MemberNumber: "88", NationalID: "88", FullName: "Luis Pereira",
		Flags: memberModels.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: true, FederationCurrent: true, LoanCurrent: true},
	}))
	op := &opModels.Operator{ID: id.OperatorID(uuid.New()), Username: "door", DisplayName: "Door", Role: opModels.RoleOperator}

	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)

	get := func(t *testing.T, memberID string) map[string]any {
		t.Helper()
		rr := testutil.DoRequest(r, testutil.WithOperator(testutil.NewRequest(t, http.MethodGet, "/check-ins/"+memberID), op))
		testutil.AssertStatusOK(t, rr)
		return *testutil.UnmarshalResponse[map[string]any](t, rr)
	}

	t.Run("not yet checked in", func(t *testing.T) {
		body := get(t, member.String())
		assert.Equal(t, false, body["checked_in"])
		assert.Equal(t, "full_rights", body["eligibility"])
	})

	t.Run("checked in", func(t *testing.T) {
		_, err := svc.CheckIn(context.Background(), member, op)
		require.NoError(t, err)

		body := get(t, member.String())
		assert.Equal(t, true, body["checked_in"])
		assert.NotNil(t, body["claim"])
	})

	t.Run("unknown member is 404", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.WithOperator(testutil.NewRequest(t, http.MethodGet, "/check-ins/"+uuid.NewString()), op))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.WithOperator(testutil.NewRequest(t, http.MethodGet, "/check-ins/nope"), op))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
