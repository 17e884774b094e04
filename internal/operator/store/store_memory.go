package store

import (
	"context"
	"sync"

	"frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/sentinel"
)

// ErrNotFound is returned when no operator matches.
var ErrNotFound = sentinel.ErrNotFound

type InMemoryStore struct {
	mu        sync.RWMutex
	operators map[id.OperatorID]*models.Operator
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{operators: make(map[id.OperatorID]*models.Operator)}
}

// Put inserts or replaces an operator.
func (s *InMemoryStore) Put(_ context.Context, op *models.Operator) error {
	if err := op.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *op
	cp.Permissions = append([]models.Permission(nil), op.Permissions...)
	s.operators[op.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.operators[operatorID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *op
	cp.Permissions = append([]models.Permission(nil), op.Permissions...)
	return &cp, nil
}
