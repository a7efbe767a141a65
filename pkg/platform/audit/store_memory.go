package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in memory. Suitable for development and
// tests; production deployments use the Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, category EventCategory) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if category == "" {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		return out, nil
	}

	var out []Event
	for _, e := range s.events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}
