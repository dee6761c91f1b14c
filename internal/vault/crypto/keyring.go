// Package crypto implements the vault's EncryptionPort with a keyring of
// XChaCha20-Poly1305 keys. Each configured key is master material; the AEAD
// key is derived from it with HKDF-SHA256 so the same material never keys two
// purposes. The key id is bound as associated data, so a ciphertext cannot be
// opened under a different id even if two ids share material.
package crypto

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"tokenvault/internal/vault/models"
)

const (
	minKeyMaterial = 32
	derivationInfo = "tokenvault account number v1"
)

var (
	ErrUnknownKey    = errors.New("unknown encryption key")
	ErrEmptyPlain    = errors.New("plaintext is required")
	ErrDecryptFailed = errors.New("decrypt account number")
)

// Keyring holds every key that may still open stored ciphertext and seals new
// ciphertext under the active one.
type Keyring struct {
	active string
	aeads  map[string]cipher.AEAD
	random io.Reader
}

// NewKeyring builds a keyring from raw key material by key id.
func NewKeyring(activeKeyID string, material map[string][]byte) (*Keyring, error) {
	if activeKeyID == "" {
		return nil, errors.New("active key id is required")
	}
	if _, ok := material[activeKeyID]; !ok {
		return nil, fmt.Errorf("active key %q: %w", activeKeyID, ErrUnknownKey)
	}
	k := &Keyring{
		active: activeKeyID,
		aeads:  make(map[string]cipher.AEAD, len(material)),
		random: rand.Reader,
	}
	for keyID, raw := range material {
		if len(raw) < minKeyMaterial {
			return nil, fmt.Errorf("key %q: material must be at least %d bytes", keyID, minKeyMaterial)
		}
		derived := make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(hkdf.New(sha256.New, raw, []byte(keyID), []byte(derivationInfo)), derived); err != nil {
			return nil, fmt.Errorf("key %q: derive: %w", keyID, err)
		}
		aead, err := chacha20poly1305.NewX(derived)
		clear(derived)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keyID, err)
		}
		k.aeads[keyID] = aead
	}
	return k, nil
}

// NewKeyringFromBase64 decodes standard base64 key material, as found in
// configuration.
func NewKeyringFromBase64(activeKeyID string, encoded map[string]string) (*Keyring, error) {
	material := make(map[string][]byte, len(encoded))
	for keyID, value := range encoded {
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: decode base64: %w", keyID, err)
		}
		material[keyID] = raw
	}
	return NewKeyring(activeKeyID, material)
}

func (k *Keyring) ActiveKeyID() string {
	return k.active
}

// Encrypt seals plaintext under the active key with a fresh random nonce.
func (k *Keyring) Encrypt(_ context.Context, plaintext []byte) (models.EncryptedNumber, error) {
	if len(plaintext) == 0 {
		return models.EncryptedNumber{}, ErrEmptyPlain
	}
	aead := k.aeads[k.active]
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(k.random, nonce); err != nil {
		return models.EncryptedNumber{}, fmt.Errorf("read nonce: %w", err)
	}
	return models.EncryptedNumber{
		Ciphertext: aead.Seal(nil, nonce, plaintext, []byte(k.active)),
		IV:         nonce,
		KeyID:      k.active,
	}, nil
}

// Decrypt opens a stored number with whichever key sealed it.
func (k *Keyring) Decrypt(_ context.Context, encrypted models.EncryptedNumber) ([]byte, error) {
	aead, ok := k.aeads[encrypted.KeyID]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", encrypted.KeyID, ErrUnknownKey)
	}
	if len(encrypted.IV) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce has %d bytes", ErrDecryptFailed, len(encrypted.IV))
	}
	plaintext, err := aead.Open(nil, encrypted.IV, encrypted.Ciphertext, []byte(encrypted.KeyID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptFailed, err)
	}
	return plaintext, nil
}
