package override

import (
	"context"
	"sort"
	"sync"

	id "credex/pkg/domain"
	"credex/pkg/platform/sentinel"
)

// InMemoryStore keeps override records in a map keyed by decision, which
// makes the one-override-per-decision invariant a map insert.
type InMemoryStore struct {
	mu         sync.RWMutex
	byDecision map[id.DecisionID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byDecision: make(map[id.DecisionID]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byDecision[record.DecisionID]; exists {
		return sentinel.ErrConflict
	}
	s.byDecision[record.DecisionID] = record
	return nil
}

func (s *InMemoryStore) GetByDecision(_ context.Context, decisionID id.DecisionID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byDecision[decisionID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.byDecision))
	for _, record := range s.byDecision {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID.String() < records[j].ID.String()
	})

	if offset > 0 {
		if offset >= len(records) {
			return []Record{}, nil
		}
		records = records[offset:]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
