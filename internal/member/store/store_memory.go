package store

import (
	"context"
	"sync"
	"time"

	"frontdesk/internal/member/models"
	id "frontdesk/pkg/domain"
)

// InMemoryDirectory backs dev mode and tests. UpdateFlags models a re-import.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	byID       map[id.MemberID]*models.Member
	byNumber   map[string]id.MemberID
	byNational map[string]id.MemberID
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		byID:       make(map[id.MemberID]*models.Member),
		byNumber:   make(map[string]id.MemberID),
		byNational: make(map[string]id.MemberID),
	}
}

// Put inserts or replaces a member.
func (s *InMemoryDirectory) Put(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	cp.NationalID = models.NormalizeNationalID(m.NationalID)
	s.byID[m.ID] = &cp
	s.byNumber[m.MemberNumber] = m.ID
	s.byNational[cp.NationalID] = m.ID
	return nil
}

// UpdateFlags replaces a member's flags.
func (s *InMemoryDirectory) UpdateFlags(_ context.Context, memberID id.MemberID, flags models.Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[memberID]
	if !ok {
		return ErrNotFound
	}
	m.Flags = flags
	m.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryDirectory) FindByID(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(memberID)
}

func (s *InMemoryDirectory) FindByNumber(_ context.Context, number string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memberID, ok := s.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copyOf(memberID)
}

func (s *InMemoryDirectory) FindByNationalID(_ context.Context, nationalID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	memberID, ok := s.byNational[nationalID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copyOf(memberID)
}

// FindMember resolves a free-form lookup key.
func (s *InMemoryDirectory) FindMember(ctx context.Context, q string) (*models.Member, error) {
	return Resolve(ctx, s, q)
}

func (s *InMemoryDirectory) Exists(_ context.Context, memberID id.MemberID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[memberID]
	return ok, nil
}

func (s *InMemoryDirectory) GetFlags(_ context.Context, memberID id.MemberID) (models.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[memberID]
	if !ok {
		return models.Flags{}, ErrNotFound
	}
	return m.Flags, nil
}

// GetFlagsBatch returns flags for the known ids; unknown ids are omitted.
func (s *InMemoryDirectory) GetFlagsBatch(_ context.Context, ids []id.MemberID) (map[id.MemberID]models.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.MemberID]models.Flags, len(ids))
	for _, memberID := range ids {
		if m, ok := s.byID[memberID]; ok {
			out[memberID] = m.Flags
		}
	}
	return out, nil
}

// FindByIDs returns copies of the known members; unknown ids are omitted.
func (s *InMemoryDirectory) FindByIDs(_ context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.MemberID]*models.Member, len(ids))
	for _, memberID := range ids {
		if m, err := s.copyOf(memberID); err == nil {
			out[memberID] = m
		}
	}
	return out, nil
}

func (s *InMemoryDirectory) copyOf(memberID id.MemberID) (*models.Member, error) {
	m, ok := s.byID[memberID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}
