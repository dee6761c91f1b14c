package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

var testEncrypted = EncryptedNumber{Ciphertext: []byte("ct"), IV: []byte("iv"), KeyID: "k1"}

func TestEncryptedNumberInvariant(t *testing.T) {
	assert.NoError(t, EncryptedNumber{}.Validate())
	assert.NoError(t, testEncrypted.Validate())

	partial := []EncryptedNumber{
		{Ciphertext: []byte("ct")},
		{Ciphertext: []byte("ct"), IV: []byte("iv")},
		{IV: []byte("iv"), KeyID: "k1"},
		{KeyID: "k1"},
	}
	for _, e := range partial {
		err := e.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	}
}

func TestNewAccount(t *testing.T) {
	now := time.Now()
	fp := Fingerprint{Prefix: "41111111", Suffix: "1111"}

	t.Run("requires a card bin", func(t *testing.T) {
		_, err := NewAccount("tok", 7, fp, testEncrypted, "12/30", "a@b.com", 0, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("requires the full encrypted triple", func(t *testing.T) {
		_, err := NewAccount("tok", 7, fp, EncryptedNumber{Ciphertext: []byte("ct")}, "12/30", "a@b.com", 1, now)
		require.Error(t, err)
	})

	t.Run("builds an active account", func(t *testing.T) {
		acct, err := NewAccount("tok", 7, fp, testEncrypted, "12/30", "a@b.com", id.CardBinID(1), now)
		require.NoError(t, err)
		assert.True(t, acct.IsActive())
		assert.Equal(t, "tok", acct.Token)
	})
}

func TestAccountLifecycle(t *testing.T) {
	now := time.Now()
	acct, err := NewAccount("tok", 7, Fingerprint{Prefix: "41111111", Suffix: "1111"}, testEncrypted, "12/30", "a@b.com", 1, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	update := AccountUpdate{
		Fingerprint:    Fingerprint{Prefix: "41111111", Suffix: "2222"},
		Encrypted:      EncryptedNumber{Ciphertext: []byte("ct2"), IV: []byte("iv2"), KeyID: "k2"},
		ExpirationDate: "01/31",
		HolderEmail:    "c@d.com",
		UpdatedAt:      later,
	}
	require.NoError(t, acct.ApplyUpdate(update))
	assert.Equal(t, "tok", acct.Token, "token is immutable")
	assert.Equal(t, "2222", acct.Fingerprint.Suffix)
	assert.Equal(t, "k2", acct.Encrypted.KeyID)
	assert.Equal(t, later, acct.UpdatedAt)

	acct.ApplyDisable(later)
	assert.False(t, acct.IsActive())
	err = acct.ApplyUpdate(update)
	require.Error(t, err, "disabled is terminal")
}
