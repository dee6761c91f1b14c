package claims

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

type claim struct {
	completed bool
	expires   time.Time
}

// InMemory is a single-process Store for tests and local runs.
type InMemory struct {
	mu     sync.Mutex
	claims map[id.EventID]claim
	now    func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{claims: make(map[id.EventID]claim), now: time.Now}
}

// WithClock replaces the expiry clock.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

func (s *InMemory) Claim(_ context.Context, eventID id.EventID, lease time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if c, ok := s.claims[eventID]; ok && now.Before(c.expires) {
		if c.completed {
			return ErrCompleted
		}
		return fmt.Errorf("claim event %s: %w", eventID, sentinel.ErrAlreadyClaimed)
	}
	s.claims[eventID] = claim{expires: now.Add(lease)}
	return nil
}

func (s *InMemory) Complete(_ context.Context, eventID id.EventID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[eventID] = claim{completed: true, expires: s.now().Add(ttl)}
	return nil
}

func (s *InMemory) Release(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[eventID]; ok && !c.completed {
		delete(s.claims, eventID)
	}
	return nil
}
