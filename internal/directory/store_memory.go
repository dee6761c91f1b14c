package directory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

// InMemory is a Store for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.AccountID]Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.AccountID]Entry)}
}

func (s *InMemory) Register(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.AccountID]; exists {
		return ErrAlreadyRegistered
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.RegisteredAt
	}
	s.entries[entry.AccountID] = entry
	return nil
}

func (s *InMemory) Update(_ context.Context, clientID id.ClientID, accountID id.AccountID, update EntryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[accountID]
	if !ok || entry.ClientID != clientID {
		return fmt.Errorf("directory entry: %w", sentinel.ErrNotFound)
	}
	entry.Token = update.Token
	entry.Masked = update.Masked
	entry.UpdatedAt = update.UpdatedAt
	s.entries[accountID] = entry
	return nil
}

func (s *InMemory) Deregister(_ context.Context, clientID id.ClientID, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[accountID]; ok && entry.ClientID == clientID {
		delete(s.entries, accountID)
	}
	return nil
}

func (s *InMemory) Get(_ context.Context, clientID id.ClientID, accountID id.AccountID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[accountID]
	if !ok || entry.ClientID != clientID {
		return nil, fmt.Errorf("directory entry: %w", sentinel.ErrNotFound)
	}
	return &entry, nil
}

// List returns the tenant's entries ordered by registration time, then id.
func (s *InMemory) List(_ context.Context, clientID id.ClientID) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, entry := range s.entries {
		if entry.ClientID == clientID {
			out = append(out, &entry)
		}
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return strings.Compare(a.AccountID.String(), b.AccountID.String())
	})
	return out, nil
}
