package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/assignment/models"
	id "frontdesk/pkg/domain"
)

type InMemoryListStore struct {
	mu    sync.RWMutex
	lists map[id.ListID]*models.List
}

func NewInMemoryListStore() *InMemoryListStore {
	return &InMemoryListStore{lists: make(map[id.ListID]*models.List)}
}

// EnsureDefault returns the owner's default list, creating it on first call.
// Concurrent callers for one owner all get the same list.
func (s *InMemoryListStore) EnsureDefault(_ context.Context, owner id.OperatorID, ownerName string, now time.Time) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lists {
		if l.IsDefault && l.OwnedBy(owner) {
			cp := *l
			return &cp, nil
		}
	}
	l := &models.List{
		ID:               id.ListID(uuid.New()),
		OwnerOperatorID:  owner,
		OwnerDisplayName: ownerName,
		Name:             models.DefaultListName,
		IsDefault:        true,
		CreatedAt:        now,
	}
	s.lists[l.ID] = l
	cp := *l
	return &cp, nil
}

func (s *InMemoryListStore) Create(_ context.Context, l *models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.lists[l.ID] = &cp
	return nil
}

func (s *InMemoryListStore) FindByID(_ context.Context, listID id.ListID) (*models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[listID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// ListByOwner returns the owner's lists, oldest first.
func (s *InMemoryListStore) ListByOwner(_ context.Context, owner id.OperatorID) ([]*models.List, error) {
	return s.collect(func(l *models.List) bool { return l.OwnedBy(owner) }), nil
}

// ListAll returns every list, oldest first.
func (s *InMemoryListStore) ListAll(_ context.Context) ([]*models.List, error) {
	return s.collect(func(*models.List) bool { return true }), nil
}

func (s *InMemoryListStore) collect(keep func(*models.List) bool) []*models.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.List, 0, len(s.lists))
	for _, l := range s.lists {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
