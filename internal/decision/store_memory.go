package decision

import (
	"context"
	"sort"
	"sync"
	"time"

	id "credex/pkg/domain"
	"credex/pkg/platform/sentinel"
)

// InMemoryStore keeps decision bundles in a map. Used in tests and for local
// runs without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	bundles map[id.DecisionID]Bundle
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bundles: make(map[id.DecisionID]Bundle)}
}

func (s *InMemoryStore) Save(_ context.Context, bundle Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bundles[bundle.Decision.ID]; exists {
		return sentinel.ErrConflict
	}
	s.bundles[bundle.Decision.ID] = bundle
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, decisionID id.DecisionID) (Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, ok := s.bundles[decisionID]
	if !ok {
		return Bundle{}, sentinel.ErrNotFound
	}
	return bundle, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Bundle, 0, len(s.bundles))
	for _, bundle := range s.bundles {
		if matches(bundle.Decision, filter) {
			matched = append(matched, bundle)
		}
	}

	// Newest first, ID tie-break for a stable order.
	sort.Slice(matched, func(i, j int) bool {
		di, dj := matched[i].Decision, matched[j].Decision
		if !di.CreatedAt.Equal(dj.CreatedAt) {
			return di.CreatedAt.After(dj.CreatedAt)
		}
		return di.ID.String() < dj.ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []Bundle{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) Stats(_ context.Context, since, until time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		ByOutcome: make(map[Outcome]int64),
		ByReason:  make(map[string]int64),
	}
	for _, bundle := range s.bundles {
		d := bundle.Decision
		if !since.IsZero() && d.CreatedAt.Before(since) {
			continue
		}
		if !until.IsZero() && d.CreatedAt.After(until) {
			continue
		}
		stats.Total++
		stats.ByOutcome[d.Outcome]++
		stats.ByReason[d.PrimaryReason]++
	}
	return stats, nil
}

func matches(d Decision, filter Filter) bool {
	if filter.ApplicationID != "" && d.ApplicationID != filter.ApplicationID {
		return false
	}
	if filter.Outcome != "" && d.Outcome != filter.Outcome {
		return false
	}
	if !filter.Since.IsZero() && d.CreatedAt.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && d.CreatedAt.After(filter.Until) {
		return false
	}
	return true
}
