package handlers

import (
	"context"
	"errors"
	"log/slog"

	"tokenvault/internal/directory"
	"tokenvault/internal/events/models"
	id "tokenvault/pkg/domain"
)

// AccountCreated registers newly tokenized accounts in the directory.
type AccountCreated struct {
	base
}

func NewAccountCreated(store directory.Store, logger *slog.Logger) *AccountCreated {
	return &AccountCreated{base: newBase(models.TypeAccountCreated, "account_created", store, logger)}
}

func (h *AccountCreated) Handle(ctx context.Context, event models.IntegrationEvent) bool {
	payload, err := models.DecodePayload[models.AccountCreated](event)
	if err != nil {
		return h.rejected(ctx, event, "invalid payload", err)
	}
	accountID := payload.ParsedAccountID()

	at := occurredAt(event)
	err = h.directory.Register(ctx, directory.Entry{
		AccountID:    accountID,
		ClientID:     event.ClientID,
		Token:        payload.Token,
		Masked:       payload.Masked,
		CardBinID:    id.CardBinID(payload.CardBinID),
		RegisteredAt: at,
		UpdatedAt:    at,
	})
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyRegistered) {
			return h.rejected(ctx, event, "cannot register account: duplicate", err)
		}
		return h.failed(ctx, event, err)
	}
	return h.handled(ctx, event, payload.AccountID)
}
