package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

func TestIntegrationEvent_Is(t *testing.T) {
	assert.True(t, IntegrationEvent{Type: TypeAccountCreated}.Is(TypeAccountCreated))
	assert.False(t, IntegrationEvent{Type: TypeAccountUpdated}.Is(TypeAccountCreated))
	assert.False(t, IntegrationEvent{}.Is(""), "an untagged event never matches, not even the empty tag")
}

func TestEncodeDecode(t *testing.T) {
	occurred := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	accountID := uuid.NewString()
	event, err := NewEvent(TypeAccountCreated, 7, occurred, AccountCreated{
		AccountID: accountID, Token: "tok", Masked: "41111111****1111", CardBinID: 1,
	})
	require.NoError(t, err)

	raw, err := event.Encode()
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, TypeAccountCreated, decoded.Type)
	assert.Equal(t, id.ClientID(7), decoded.ClientID)
	assert.True(t, occurred.Equal(decoded.OccurredAt))

	payload, err := DecodePayload[AccountCreated](decoded)
	require.NoError(t, err)
	assert.Equal(t, accountID, payload.AccountID)
	assert.Equal(t, accountID, payload.ParsedAccountID().String())
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = Decode([]byte(`{"type":"account.created"}`))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "event id is required")
}

func TestDecode_MissingTypeIsKept(t *testing.T) {
	decoded, err := Decode([]byte(`{"id":"` + uuid.NewString() + `","client_id":7}`))
	require.NoError(t, err)
	assert.False(t, decoded.HasType())
}

func TestDecodePayload(t *testing.T) {
	t.Run("missing payload", func(t *testing.T) {
		_, err := DecodePayload[AccountDeleted](IntegrationEvent{Type: TypeAccountDeleted})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodePayload[AccountDeleted](IntegrationEvent{Type: TypeAccountDeleted, Payload: []byte(`[1]`)})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("invalid account id", func(t *testing.T) {
		_, err := DecodePayload[AccountDeleted](IntegrationEvent{Type: TypeAccountDeleted, Payload: []byte(`{"account_id":"nope"}`)})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("exposes the parsed account id", func(t *testing.T) {
		accountID := uuid.New()
		deleted, err := DecodePayload[AccountDeleted](IntegrationEvent{
			Type:    TypeAccountDeleted,
			Payload: []byte(`{"account_id":"` + accountID.String() + `"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, id.AccountID(accountID), deleted.ParsedAccountID())

		updated, err := DecodePayload[AccountUpdated](IntegrationEvent{
			Type:    TypeAccountUpdated,
			Payload: []byte(`{"account_id":"` + accountID.String() + `","token":"tok"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, id.AccountID(accountID), updated.ParsedAccountID())
	})
	t.Run("created requires a card bin", func(t *testing.T) {
		_, err := DecodePayload[AccountCreated](IntegrationEvent{
			Type:    TypeAccountCreated,
			Payload: []byte(`{"account_id":"` + uuid.NewString() + `","token":"tok"}`),
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
