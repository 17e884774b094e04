package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/claim/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in process. Per-key atomicity comes from the
// sharded transaction wrapping it; mu only protects the maps.
type InMemoryStore struct {
	mu     sync.RWMutex
	claims map[id.ClaimID]*models.Claim
	active map[models.Key]id.ClaimID
	byKey  map[models.Key][]id.ClaimID
	clock  *monotonicClock
}

type MemoryOption func(*InMemoryStore)

// WithClock replaces the wall clock used for claimedAt. Values stay strictly
// increasing regardless of what now returns.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		s.clock = newMonotonicClock(now)
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		claims: make(map[id.ClaimID]*models.Claim),
		active: make(map[models.Key]id.ClaimID),
		byKey:  make(map[models.Key][]id.ClaimID),
		clock:  newMonotonicClock(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) FindActive(_ context.Context, key models.Key) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimID, ok := s.active[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.claims[claimID]
	return &cp, nil
}

// Insert stores c as ACTIVE and stamps ClaimedAt. It returns
// sentinel.ErrConflict if the key already has an ACTIVE claim.
func (s *InMemoryStore) Insert(_ context.Context, c *models.Claim) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.Key()
	if _, ok := s.active[key]; ok {
		return nil, sentinel.ErrConflict
	}
	cp := *c
	if cp.ID.IsNil() {
		cp.ID = id.ClaimID(uuid.New())
	}
	cp.Status = models.StatusActive
	cp.ClaimedAt = s.clock.Now()
	s.claims[cp.ID] = &cp
	s.active[key] = cp.ID
	s.byKey[key] = append(s.byKey[key], cp.ID)
	out := cp
	return &out, nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, claimID id.ClaimID, rev models.Revocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[claimID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !c.IsActive() {
		return sentinel.ErrInvalidState
	}
	revoked := c.Revoked(rev)
	s.claims[claimID] = revoked
	delete(s.active, c.Key())
	return nil
}

func (s *InMemoryStore) ListActiveByPurpose(_ context.Context, purpose id.ClaimPurpose) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Claim
	for key, claimID := range s.active {
		if key.Purpose == purpose {
			cp := *s.claims[claimID]
			out = append(out, &cp)
		}
	}
	sortByClaimedAt(out)
	return out, nil
}

func (s *InMemoryStore) ListActiveByContainer(_ context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Claim
	for key, claimID := range s.active {
		c := s.claims[claimID]
		if key.Purpose == purpose && c.ContainerID == containerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortByClaimedAt(out)
	return out, nil
}

// ListByKey returns every claim ever made for key, oldest first.
func (s *InMemoryStore) ListByKey(_ context.Context, key models.Key) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byKey[key]
	out := make([]*models.Claim, 0, len(ids))
	for _, claimID := range ids {
		cp := *s.claims[claimID]
		out = append(out, &cp)
	}
	return out, nil
}

func sortByClaimedAt(claims []*models.Claim) {
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].ClaimedAt.Before(claims[j].ClaimedAt)
	})
}
