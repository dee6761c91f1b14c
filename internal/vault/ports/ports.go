// Package ports defines the collaborators the vault core depends on.
// Adapters live in sibling packages (store/account, crypto, cardbin).
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	eventmodels "tokenvault/internal/events/models"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	audit "tokenvault/pkg/platform/audit"
)

// EncryptionPort encrypts and decrypts full account numbers.
type EncryptionPort interface {
	// Encrypt seals plaintext under the active key. The returned triple is
	// always complete.
	Encrypt(ctx context.Context, plaintext []byte) (models.EncryptedNumber, error)

	// Decrypt opens a triple produced by Encrypt under any known key.
	Decrypt(ctx context.Context, encrypted models.EncryptedNumber) ([]byte, error)

	// ActiveKeyID names the key new ciphertexts are sealed with.
	ActiveKeyID() string
}

// CardBinPort classifies a fingerprint prefix into a card brand.
type CardBinPort interface {
	// Classify returns found=false when the prefix belongs to no known brand.
	// err is reserved for classification-service faults.
	Classify(ctx context.Context, prefix string) (cardBinID id.CardBinID, found bool, err error)
}

// AccountStore persists tokenized accounts. Lookups only see active
// (non-disabled) accounts of the given tenant.
//
// Error contract:
//   - sentinel.ErrNotFound when no active account matches
//   - sentinel.ErrConflict when Insert/Update violates token or dedup-key uniqueness
//   - wrapped errors for infrastructure failures
type AccountStore interface {
	FindByFingerprint(ctx context.Context, fingerprint models.Fingerprint, clientID id.ClientID) (*models.Account, error)
	FindByToken(ctx context.Context, token string, clientID id.ClientID) (*models.Account, error)
	Insert(ctx context.Context, account *models.Account) (id.AccountID, error)
	Update(ctx context.Context, accountID id.AccountID, update models.AccountUpdate) error
	Disable(ctx context.Context, accountID id.AccountID, at time.Time) error
}

// KeyRotationStore feeds the re-encryption job. It spans all tenants.
type KeyRotationStore interface {
	// ListEncryptedWithOtherKey returns up to limit active accounts whose key
	// differs from keyID, ordered by id and strictly after the given cursor.
	ListEncryptedWithOtherKey(ctx context.Context, keyID string, after id.AccountID, limit int) ([]*models.Account, error)

	// RotateEncryption replaces only the encrypted number, and only while the
	// account is active, still sealed under expectedKeyID and unchanged since
	// expectedUpdatedAt. Otherwise it returns sentinel.ErrNotFound and leaves
	// the record alone.
	RotateEncryption(ctx context.Context, accountID id.AccountID, expectedKeyID string, expectedUpdatedAt time.Time, encrypted models.EncryptedNumber) error
}

// EventPublisher announces committed account changes to downstream
// consumers. A publish failure never undoes the change that caused it.
type EventPublisher interface {
	Publish(ctx context.Context, event eventmodels.IntegrationEvent) error
}

// AuditPublisher records who touched which account. Emit failures are
// logged by the caller and never fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
