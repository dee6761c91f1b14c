package handlers

import (
	"context"
	"log/slog"

	"tokenvault/internal/directory"
	"tokenvault/internal/events/models"
)

// AccountDeleted removes a disabled account from the directory. Removing an
// entry that is already gone succeeds.
type AccountDeleted struct {
	base
}

func NewAccountDeleted(store directory.Store, logger *slog.Logger) *AccountDeleted {
	return &AccountDeleted{base: newBase(models.TypeAccountDeleted, "account_deleted", store, logger)}
}

func (h *AccountDeleted) Handle(ctx context.Context, event models.IntegrationEvent) bool {
	payload, err := models.DecodePayload[models.AccountDeleted](event)
	if err != nil {
		return h.rejected(ctx, event, "invalid payload", err)
	}
	accountID := payload.ParsedAccountID()

	if err := h.directory.Deregister(ctx, event.ClientID, accountID); err != nil {
		return h.failed(ctx, event, err)
	}
	return h.handled(ctx, event, payload.AccountID)
}
