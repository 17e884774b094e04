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

	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	"frontdesk/internal/member/models"
	"frontdesk/internal/member/service"
	"frontdesk/internal/member/store"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *models.Member) {
	t.Helper()
	directory := store.NewInMemoryDirectory()
	claims := claimStore.NewInMemoryStore()
	registry := claimService.New(claimService.NewShardedTx(claims, time.Second), claims, directory)

	m := &models.Member{
		ID:           id.MemberID(uuid.New()),
		MemberNumber: "77",
		NationalID:   "1.234.567-8",
		FullName:     "Ana Ferreira",
		Flags:        models.Flags{ContributionCurrent: true, SolidarityCurrent: true, FundCurrent: false, FederationCurrent: true, LoanCurrent: true},
	}
	require.NoError(t, directory.Put(context.Background(), m))

	r := chi.NewRouter()
	New(service.New(directory, registry), slog.New(slog.DiscardHandler)).Register(r)
	return r, m
}

func TestHandleSearch(t *testing.T) {
	r, m := newRouter(t)

	t.Run("found member carries eligibility", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/search?q=77"))
		testutil.AssertStatusOK(t, rr)

		body := testutil.UnmarshalResponse[map[string]any](t, rr)
		member := (*body)["member"].(map[string]any)
		assert.Equal(t, m.ID.String(), member["id"])
		assert.Equal(t, "voice_only", member["eligibility"])
		assert.Equal(t, []any{"fund"}, member["missing_flags"])
	})

	t.Run("unknown member is 404", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/search?q=404404"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("missing query is 400", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/members/search"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}
