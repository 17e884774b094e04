package memory

import (
	"context"
	"sort"
	"sync"

	audit "frontdesk/pkg/platform/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.OverrideRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func (s *InMemoryStore) Append(_ context.Context, records ...audit.OverrideRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.OverrideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]audit.OverrideRecord(nil), s.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
