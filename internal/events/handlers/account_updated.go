package handlers

import (
	"context"
	"errors"
	"log/slog"

	"tokenvault/internal/directory"
	"tokenvault/internal/events/models"
	"tokenvault/pkg/platform/sentinel"
)

// AccountUpdated rewrites the directory entry of an existing account.
type AccountUpdated struct {
	base
}

func NewAccountUpdated(store directory.Store, logger *slog.Logger) *AccountUpdated {
	return &AccountUpdated{base: newBase(models.TypeAccountUpdated, "account_updated", store, logger)}
}

func (h *AccountUpdated) Handle(ctx context.Context, event models.IntegrationEvent) bool {
	payload, err := models.DecodePayload[models.AccountUpdated](event)
	if err != nil {
		return h.rejected(ctx, event, "invalid payload", err)
	}
	accountID := payload.ParsedAccountID()

	err = h.directory.Update(ctx, event.ClientID, accountID, directory.EntryUpdate{
		Token:     payload.Token,
		Masked:    payload.Masked,
		UpdatedAt: occurredAt(event),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return h.rejected(ctx, event, "account not registered", err)
		}
		return h.failed(ctx, event, err)
	}
	return h.handled(ctx, event, payload.AccountID)
}
