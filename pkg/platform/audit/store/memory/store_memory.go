package memory

import (
	"context"
	"slices"
	"sync"

	id "tokenvault/pkg/domain"
	audit "tokenvault/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ClientID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ClientID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ClientID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, events ...audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		s.events[event.ClientID] = append(s.events[event.ClientID], event)
	}
	return nil
}

// ListByClient returns up to limit events, newest first.
func (s *InMemoryStore) ListByClient(_ context.Context, clientID id.ClientID, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := slices.Clone(s.events[clientID])
	slices.Reverse(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
