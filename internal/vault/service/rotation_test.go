package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tokenvault/internal/vault/cardbin"
	"tokenvault/internal/vault/crypto"
	"tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/models"
	"tokenvault/internal/vault/ports/mocks"
	"tokenvault/internal/vault/store/account"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/sentinel"
	"tokenvault/pkg/requestcontext"
)

var (
	oldKey = bytes.Repeat([]byte{0x01}, 32)
	newKey = bytes.Repeat([]byte{0x02}, 32)
)

func TestRotator_ReencryptsStaleAccounts(t *testing.T) {
	ctx := context.Background()
	store := account.NewInMemory()

	before, err := crypto.NewKeyring("k1", map[string][]byte{"k1": oldKey})
	require.NoError(t, err)
	oldService, err := New(store, before, cardbin.NewStatic(nil))
	require.NoError(t, err)

	numbers := []string{"4111111111111111", "5500000000000004", "340000000000009", "6011000000000004", "3528000000000007"}
	tokens := make([]string, len(numbers))
	for i, n := range numbers {
		result, err := oldService.CreateAccount(ctx, &models.CreateAccountRequest{AccountNumber: n, ClientID: 7})
		require.NoError(t, err)
		tokens[i] = result.Token
	}

	after, err := crypto.NewKeyring("k2", map[string][]byte{"k1": oldKey, "k2": newKey})
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	rotator, err := NewRotator(store, after, WithBatchSize(2), WithConcurrency(3), WithRotatorMetrics(m))
	require.NoError(t, err)

	report, err := rotator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RotationReport{Scanned: 5, Rotated: 5, Failed: 0}, report)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.AccountsRotated))

	stale, err := store.ListEncryptedWithOtherKey(ctx, "k2", id.AccountID{}, 0)
	require.NoError(t, err)
	assert.Empty(t, stale)

	onlyNew, err := crypto.NewKeyring("k2", map[string][]byte{"k2": newKey})
	require.NoError(t, err)
	newService, err := New(store, onlyNew, cardbin.NewStatic(nil))
	require.NoError(t, err)
	for i, token := range tokens {
		resolved, err := newService.ResolveToken(ctx, token, 7)
		require.NoError(t, err)
		assert.Equal(t, numbers[i], resolved.AccountNumber)
	}

	again, err := rotator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RotationReport{}, again)
}

func TestRotator_CountsFailuresAndContinues(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKeyRotationStore(ctrl)
	encryption := mocks.NewMockEncryptionPort(ctrl)

	listedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	good := &models.Account{ID: id.AccountID(uuid.New()), UpdatedAt: listedAt, Encrypted: models.EncryptedNumber{Ciphertext: []byte("a"), IV: []byte("i"), KeyID: "k1"}}
	bad := &models.Account{ID: id.AccountID(uuid.New()), UpdatedAt: listedAt, Encrypted: models.EncryptedNumber{Ciphertext: []byte("b"), IV: []byte("i"), KeyID: "gone"}}
	vanished := &models.Account{ID: id.AccountID(uuid.New()), UpdatedAt: listedAt, Encrypted: models.EncryptedNumber{Ciphertext: []byte("c"), IV: []byte("i"), KeyID: "k1"}}
	rotatedTo := models.EncryptedNumber{Ciphertext: []byte("x"), IV: []byte("y"), KeyID: "k2"}

	encryption.EXPECT().ActiveKeyID().Return("k2")
	store.EXPECT().ListEncryptedWithOtherKey(gomock.Any(), "k2", id.AccountID{}, 10).
		Return([]*models.Account{good, bad, vanished}, nil)

	encryption.EXPECT().Decrypt(gomock.Any(), good.Encrypted).Return([]byte("4111111111111111"), nil)
	encryption.EXPECT().Decrypt(gomock.Any(), bad.Encrypted).Return(nil, errors.New("unknown key"))
	encryption.EXPECT().Decrypt(gomock.Any(), vanished.Encrypted).Return([]byte("5500000000000004"), nil)
	encryption.EXPECT().Encrypt(gomock.Any(), gomock.Any()).Return(rotatedTo, nil).Times(2)
	store.EXPECT().RotateEncryption(gomock.Any(), good.ID, "k1", listedAt, rotatedTo).Return(nil)
	store.EXPECT().RotateEncryption(gomock.Any(), vanished.ID, "k1", listedAt, rotatedTo).Return(sentinel.ErrNotFound)

	rotator, err := NewRotator(store, encryption, WithBatchSize(10))
	require.NoError(t, err)

	report, err := rotator.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RotationReport{Scanned: 3, Rotated: 1, Skipped: 1, Failed: 1}, report)
}

// listHookStore runs afterList once, between listing a batch and rotating it.
type listHookStore struct {
	*account.InMemory
	afterList func()
}

func (s *listHookStore) ListEncryptedWithOtherKey(ctx context.Context, keyID string, after id.AccountID, limit int) ([]*models.Account, error) {
	batch, err := s.InMemory.ListEncryptedWithOtherKey(ctx, keyID, after, limit)
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return batch, err
}

func TestRotator_ConcurrentWritesWin(t *testing.T) {
	ctx := context.Background()
	store := &listHookStore{InMemory: account.NewInMemory()}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before, err := crypto.NewKeyring("k1", map[string][]byte{"k1": oldKey})
	require.NoError(t, err)
	oldService, err := New(store, before, cardbin.NewStatic(nil))
	require.NoError(t, err)

	createCtx := requestcontext.WithTime(ctx, created)
	updated, err := oldService.CreateAccount(createCtx, &models.CreateAccountRequest{
		AccountNumber: "4111111111111111", ExpirationDate: "12/30", HolderEmail: "a@b.com", ClientID: 7,
	})
	require.NoError(t, err)
	disabled, err := oldService.CreateAccount(createCtx, &models.CreateAccountRequest{
		AccountNumber: "6011000000000004", ClientID: 7,
	})
	require.NoError(t, err)

	after, err := crypto.NewKeyring("k2", map[string][]byte{"k1": oldKey, "k2": newKey})
	require.NoError(t, err)
	newService, err := New(store, after, cardbin.NewStatic(nil))
	require.NoError(t, err)

	// A replica still on the old key writes while the rotator holds a stale batch.
	store.afterList = func() {
		_, err := oldService.UpdateAccount(requestcontext.WithTime(ctx, created.Add(time.Minute)), &models.UpdateAccountRequest{
			Token: updated.Token, AccountNumber: "5555555555554444", ExpirationDate: "01/31", HolderEmail: "c@d.com", ClientID: 7,
		})
		require.NoError(t, err)
		require.NoError(t, oldService.DisableAccount(ctx, disabled.Token, 7))
	}

	rotator, err := NewRotator(store, after)
	require.NoError(t, err)

	report, err := rotator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RotationReport{Scanned: 2, Skipped: 2}, report)

	resolved, err := newService.ResolveToken(ctx, updated.Token, 7)
	require.NoError(t, err)
	assert.Equal(t, "5555555555554444", resolved.AccountNumber)
	assert.Equal(t, "01/31", resolved.ExpirationDate)
	assert.Equal(t, "c@d.com", resolved.HolderEmail)

	token, err := newService.FindToken(ctx, "5555555555554444", 7)
	require.NoError(t, err)
	assert.Equal(t, updated.Token, token)

	_, err = newService.ResolveToken(ctx, disabled.Token, 7)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountNotFound))

	// The updated account is still under k1 and gets rotated on the next pass.
	again, err := rotator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RotationReport{Scanned: 1, Rotated: 1}, again)

	resolved, err = newService.ResolveToken(ctx, updated.Token, 7)
	require.NoError(t, err)
	assert.Equal(t, "5555555555554444", resolved.AccountNumber)

	stored, err := store.FindByToken(ctx, updated.Token, 7)
	require.NoError(t, err)
	assert.Equal(t, "k2", stored.Encrypted.KeyID)
	assert.True(t, stored.UpdatedAt.Equal(created.Add(time.Minute)), "rotation keeps updated_at")
}

func TestRotator_ListFailureStopsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKeyRotationStore(ctrl)
	encryption := mocks.NewMockEncryptionPort(ctrl)
	encryption.EXPECT().ActiveKeyID().Return("k2")
	store.EXPECT().ListEncryptedWithOtherKey(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errStoreDown)

	rotator, err := NewRotator(store, encryption)
	require.NoError(t, err)

	_, err = rotator.Run(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}
