package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/claim/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/sentinel"
)

func newClaim(member id.MemberID, purpose id.ClaimPurpose) *models.Claim {
	return &models.Claim{
		MemberID:    member,
		Purpose:     purpose,
		Holder:      models.Holder{OperatorID: id.OperatorID(uuid.New()), DisplayName: "Desk 1"},
		ContainerID: uuid.New(),
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("second active claim for a key conflicts", func(t *testing.T) {
		s := NewInMemoryStore()
		member := id.MemberID(uuid.New())
		first, err := s.Insert(ctx, newClaim(member, id.ClaimPurposeCheckIn))
		require.NoError(t, err)
		assert.False(t, first.ID.IsNil())
		assert.Equal(t, models.StatusActive, first.Status)

		_, err = s.Insert(ctx, newClaim(member, id.ClaimPurposeCheckIn))
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		_, err = s.Insert(ctx, newClaim(member, id.ClaimPurposeListAssignment))
		assert.NoError(t, err)
	})

	t.Run("revoked claims are retained and only revoked once", func(t *testing.T) {
		s := NewInMemoryStore()
		member := id.MemberID(uuid.New())
		c, err := s.Insert(ctx, newClaim(member, id.ClaimPurposeCheckIn))
		require.NoError(t, err)

		rev := models.Revocation{At: time.Now(), By: id.OperatorID(uuid.New()), Reason: "mistake"}
		require.NoError(t, s.MarkRevoked(ctx, c.ID, rev))
		assert.ErrorIs(t, s.MarkRevoked(ctx, c.ID, rev), sentinel.ErrInvalidState)
		assert.ErrorIs(t, s.MarkRevoked(ctx, id.ClaimID(uuid.New()), rev), sentinel.ErrNotFound)

		_, err = s.FindActive(ctx, c.Key())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		history, err := s.ListByKey(ctx, c.Key())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.StatusRevoked, history[0].Status)
		assert.Equal(t, "mistake", history[0].RevokeReason)
	})

	t.Run("returned claims are copies", func(t *testing.T) {
		s := NewInMemoryStore()
		c, err := s.Insert(ctx, newClaim(id.MemberID(uuid.New()), id.ClaimPurposeCheckIn))
		require.NoError(t, err)
		c.Holder.DisplayName = "tampered"

		found, err := s.FindActive(ctx, c.Key())
		require.NoError(t, err)
		assert.Equal(t, "Desk 1", found.Holder.DisplayName)
	})
}

func TestMonotonicClock(t *testing.T) {
	wall := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := newMonotonicClock(func() time.Time { return wall })

	a := clock.Now()
	wall = wall.Add(-time.Hour)
	b := clock.Now()
	wall = wall.Add(2 * time.Hour)
	c := clock.Now()

	assert.True(t, b.After(a))
	assert.True(t, c.After(b))
	assert.True(t, wall.Equal(c))
}
