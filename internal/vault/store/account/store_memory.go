package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

type fingerprintKey struct {
	prefix   string
	suffix   string
	clientID id.ClientID
}

func keyOf(fp models.Fingerprint, clientID id.ClientID) fingerprintKey {
	return fingerprintKey{prefix: fp.Prefix, suffix: fp.Suffix, clientID: clientID}
}

// InMemory stores accounts in memory for tests and local development.
// The fingerprint index holds active accounts only, which gives Insert and
// Update the same uniqueness semantics as the partial unique index in Postgres.
// Tokens stay reserved after disable.
type InMemory struct {
	mu            sync.RWMutex
	accounts      map[id.AccountID]*models.Account
	byToken       map[string]id.AccountID
	byFingerprint map[fingerprintKey]id.AccountID
}

// NewInMemory constructs an empty in-memory account store.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts:      make(map[id.AccountID]*models.Account),
		byToken:       make(map[string]id.AccountID),
		byFingerprint: make(map[fingerprintKey]id.AccountID),
	}
}

func (s *InMemory) FindByFingerprint(_ context.Context, fingerprint models.Fingerprint, clientID id.ClientID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byFingerprint[keyOf(fingerprint, clientID)]
	if !ok {
		return nil, fmt.Errorf("account by fingerprint: %w", sentinel.ErrNotFound)
	}
	return cloneAccount(s.accounts[accountID]), nil
}

func (s *InMemory) FindByToken(_ context.Context, token string, clientID id.ClientID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byToken[token]
	if !ok {
		return nil, fmt.Errorf("account by token: %w", sentinel.ErrNotFound)
	}
	account := s.accounts[accountID]
	if account.ClientID != clientID || account.Disabled {
		return nil, fmt.Errorf("account by token: %w", sentinel.ErrNotFound)
	}
	return cloneAccount(account), nil
}

func (s *InMemory) Insert(_ context.Context, account *models.Account) (id.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byToken[account.Token]; taken {
		return id.AccountID{}, fmt.Errorf("token already assigned: %w", sentinel.ErrConflict)
	}
	key := keyOf(account.Fingerprint, account.ClientID)
	if _, taken := s.byFingerprint[key]; taken {
		return id.AccountID{}, fmt.Errorf("fingerprint already tokenized: %w", sentinel.ErrConflict)
	}

	stored := cloneAccount(account)
	stored.ID = id.AccountID(uuid.New())
	s.accounts[stored.ID] = stored
	s.byToken[stored.Token] = stored.ID
	s.byFingerprint[key] = stored.ID
	return stored.ID, nil
}

func (s *InMemory) Update(_ context.Context, accountID id.AccountID, update models.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.Disabled {
		return fmt.Errorf("update account: %w", sentinel.ErrNotFound)
	}
	oldKey := keyOf(account.Fingerprint, account.ClientID)
	newKey := keyOf(update.Fingerprint, account.ClientID)
	if newKey != oldKey {
		if _, taken := s.byFingerprint[newKey]; taken {
			return fmt.Errorf("fingerprint already tokenized: %w", sentinel.ErrConflict)
		}
	}
	if err := account.ApplyUpdate(update); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	delete(s.byFingerprint, oldKey)
	s.byFingerprint[newKey] = accountID
	return nil
}

func (s *InMemory) Disable(_ context.Context, accountID id.AccountID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.Disabled {
		return fmt.Errorf("disable account: %w", sentinel.ErrNotFound)
	}
	account.ApplyDisable(at)
	delete(s.byFingerprint, keyOf(account.Fingerprint, account.ClientID))
	return nil
}

func (s *InMemory) ListEncryptedWithOtherKey(_ context.Context, keyID string, after id.AccountID, limit int) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor := after.String()
	var result []*models.Account
	for _, account := range s.accounts {
		if account.Disabled || account.Encrypted.KeyID == keyID {
			continue
		}
		if !after.IsNil() && account.ID.String() <= cursor {
			continue
		}
		result = append(result, cloneAccount(account))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *InMemory) RotateEncryption(_ context.Context, accountID id.AccountID, expectedKeyID string, expectedUpdatedAt time.Time, encrypted models.EncryptedNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok || account.Disabled ||
		account.Encrypted.KeyID != expectedKeyID ||
		!account.UpdatedAt.Equal(expectedUpdatedAt) {
		return fmt.Errorf("rotate account key: %w", sentinel.ErrNotFound)
	}
	rotated := cloneAccount(&models.Account{Encrypted: encrypted}).Encrypted
	if err := account.ApplyRotation(rotated); err != nil {
		return fmt.Errorf("rotate account key: %w", err)
	}
	return nil
}

// Count returns the number of stored accounts, disabled included.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func cloneAccount(a *models.Account) *models.Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Encrypted = models.EncryptedNumber{
		Ciphertext: append([]byte(nil), a.Encrypted.Ciphertext...),
		IV:         append([]byte(nil), a.Encrypted.IV...),
		KeyID:      a.Encrypted.KeyID,
	}
	if a.DisabledAt != nil {
		t := *a.DisabledAt
		c.DisabledAt = &t
	}
	return &c
}
