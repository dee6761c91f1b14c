// Package handlers maps account integration events onto the account
// directory. Each handler owns exactly one event type and performs exactly
// one directory action per event.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"tokenvault/internal/directory"
	"tokenvault/internal/events/models"
)

// base carries what every account handler shares.
type base struct {
	eventType models.EventType
	name      string
	directory directory.Store
	logger    *slog.Logger
}

func newBase(eventType models.EventType, name string, store directory.Store, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return base{eventType: eventType, name: name, directory: store, logger: logger}
}

func (b base) Name() string {
	return b.name
}

// Matches requires the type tag to be present and equal to the handler's.
func (b base) Matches(event models.IntegrationEvent) bool {
	return event.Is(b.eventType)
}

func (b base) Claims() []models.EventType {
	return []models.EventType{b.eventType}
}

// rejected logs a business-rule failure. The payload is kept for replay.
func (b base) rejected(ctx context.Context, event models.IntegrationEvent, reason string, err error) bool {
	b.logger.WarnContext(ctx, "event rejected",
		"handler", b.name,
		"reason", reason,
		"event_id", event.ID,
		"event_type", event.Type,
		"client_id", event.ClientID,
		"payload", string(event.Payload),
		"error", err,
	)
	return false
}

// failed logs an infrastructure fault.
func (b base) failed(ctx context.Context, event models.IntegrationEvent, err error) bool {
	b.logger.ErrorContext(ctx, "event handling failed",
		"handler", b.name,
		"event_id", event.ID,
		"event_type", event.Type,
		"client_id", event.ClientID,
		"payload", string(event.Payload),
		"error", err,
	)
	return false
}

func (b base) handled(ctx context.Context, event models.IntegrationEvent, accountID string) bool {
	b.logger.DebugContext(ctx, "event handled",
		"handler", b.name,
		"event_id", event.ID,
		"account_id", accountID,
	)
	return true
}

// occurredAt falls back to the local clock for events published without a
// timestamp.
func occurredAt(event models.IntegrationEvent) time.Time {
	if event.OccurredAt.IsZero() {
		return time.Now().UTC()
	}
	return event.OccurredAt
}
