package models

import (
	"time"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// EncryptedNumber is the ciphertext of a full account number together with
// the nonce and key that produced it. The three fields are always set
// together or not at all.
type EncryptedNumber struct {
	Ciphertext []byte
	IV         []byte
	KeyID      string
}

// IsZero reports whether no field is set.
func (e EncryptedNumber) IsZero() bool {
	return len(e.Ciphertext) == 0 && len(e.IV) == 0 && e.KeyID == ""
}

// Validate enforces the all-or-nothing invariant.
func (e EncryptedNumber) Validate() error {
	set := 0
	if len(e.Ciphertext) > 0 {
		set++
	}
	if len(e.IV) > 0 {
		set++
	}
	if e.KeyID != "" {
		set++
	}
	if set != 0 && set != 3 {
		return dErrors.New(dErrors.CodeInvariantViolation, "encrypted number must set ciphertext, iv and key id together")
	}
	return nil
}

// Account is the aggregate root for one tokenized account.
//
// Invariants:
//   - Token is non-empty and immutable after construction
//   - (Fingerprint, ClientID) identifies at most one active account
//   - Encrypted is all-or-nothing (see EncryptedNumber)
//   - CardBinID is required at creation, never re-checked on update
//   - Disabled is terminal
type Account struct {
	ID             id.AccountID
	Token          string
	ClientID       id.ClientID
	Fingerprint    Fingerprint
	Encrypted      EncryptedNumber
	ExpirationDate string
	HolderEmail    string
	CardBinID      id.CardBinID
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DisabledAt     *time.Time
}

// NewAccount builds an account ready for insertion. The ID is assigned by the store.
func NewAccount(
	token string,
	clientID id.ClientID,
	fingerprint Fingerprint,
	encrypted EncryptedNumber,
	expirationDate string,
	holderEmail string,
	cardBinID id.CardBinID,
	now time.Time,
) (*Account, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token cannot be empty")
	}
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id is required")
	}
	if fingerprint.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fingerprint is required")
	}
	if encrypted.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "encrypted number is required")
	}
	if err := encrypted.Validate(); err != nil {
		return nil, err
	}
	if cardBinID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "card bin is required at creation")
	}
	return &Account{
		Token:          token,
		ClientID:       clientID,
		Fingerprint:    fingerprint,
		Encrypted:      encrypted,
		ExpirationDate: expirationDate,
		HolderEmail:    holderEmail,
		CardBinID:      cardBinID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsActive reports whether the account participates in lookups.
func (a *Account) IsActive() bool {
	return !a.Disabled
}

// ApplyUpdate replaces the mutable fields of the account in place.
func (a *Account) ApplyUpdate(u AccountUpdate) error {
	if a.Disabled {
		return dErrors.New(dErrors.CodeInvariantViolation, "disabled account cannot be updated")
	}
	if err := u.Validate(); err != nil {
		return err
	}
	a.Fingerprint = u.Fingerprint
	a.Encrypted = u.Encrypted
	a.ExpirationDate = u.ExpirationDate
	a.HolderEmail = u.HolderEmail
	a.UpdatedAt = u.UpdatedAt
	return nil
}

// ApplyRotation swaps the encrypted number for one sealed under another key.
// The plaintext and every other field stay as they are, UpdatedAt included.
func (a *Account) ApplyRotation(encrypted EncryptedNumber) error {
	if a.Disabled {
		return dErrors.New(dErrors.CodeInvariantViolation, "disabled account cannot be rotated")
	}
	if encrypted.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "encrypted number is required")
	}
	if err := encrypted.Validate(); err != nil {
		return err
	}
	a.Encrypted = encrypted
	return nil
}

// ApplyDisable marks the account disabled. Disabling twice is a no-op.
func (a *Account) ApplyDisable(now time.Time) {
	if a.Disabled {
		return
	}
	a.Disabled = true
	a.DisabledAt = &now
	a.UpdatedAt = now
}

// AccountUpdate carries the fields rewritten when an existing fingerprint is
// tokenized again or updated by token.
type AccountUpdate struct {
	Fingerprint    Fingerprint
	Encrypted      EncryptedNumber
	ExpirationDate string
	HolderEmail    string
	UpdatedAt      time.Time
}

func (u AccountUpdate) Validate() error {
	if u.Fingerprint.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "fingerprint is required")
	}
	if u.Encrypted.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "encrypted number is required")
	}
	return u.Encrypted.Validate()
}
