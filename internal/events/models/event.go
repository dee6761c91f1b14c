package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// EventType is the declared type tag of an integration event.
type EventType string

const (
	TypeAccountCreated EventType = "account.created"
	TypeAccountUpdated EventType = "account.updated"
	TypeAccountDeleted EventType = "account.deleted"
)

// IntegrationEvent is the envelope carried on the event bus. Payload stays
// raw until a handler that matched the type decodes it.
type IntegrationEvent struct {
	ID         id.EventID      `json:"id"`
	Type       EventType       `json:"type,omitempty"`
	ClientID   id.ClientID     `json:"client_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// HasType reports whether the type tag is present.
func (e IntegrationEvent) HasType() bool {
	return e.Type != ""
}

// Is reports whether the event carries exactly the given type tag. An event
// without a tag never matches.
func (e IntegrationEvent) Is(t EventType) bool {
	return e.HasType() && e.Type == t
}

// NewEvent builds an envelope around payload with a fresh event id.
func NewEvent(t EventType, clientID id.ClientID, occurredAt time.Time, payload any) (IntegrationEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return IntegrationEvent{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return IntegrationEvent{
		ID:         id.EventID(uuid.New()),
		Type:       t,
		ClientID:   clientID,
		OccurredAt: occurredAt,
		Payload:    raw,
	}, nil
}

// Decode parses an envelope from the wire. The type tag is not required here;
// routing decides what an untagged event means.
func Decode(data []byte) (IntegrationEvent, error) {
	var wire struct {
		ID         string          `json:"id"`
		Type       EventType       `json:"type"`
		ClientID   int64           `json:"client_id"`
		OccurredAt time.Time       `json:"occurred_at"`
		Payload    json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return IntegrationEvent{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed event envelope")
	}
	eventID, err := id.ParseEventID(wire.ID)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		ID:         eventID,
		Type:       wire.Type,
		ClientID:   id.ClientID(wire.ClientID),
		OccurredAt: wire.OccurredAt,
		Payload:    wire.Payload,
	}, nil
}

// Encode serializes the envelope for the wire.
func (e IntegrationEvent) Encode() ([]byte, error) {
	return json.Marshal(struct {
		ID         string          `json:"id"`
		Type       EventType       `json:"type,omitempty"`
		ClientID   int64           `json:"client_id"`
		OccurredAt time.Time       `json:"occurred_at"`
		Payload    json.RawMessage `json:"payload,omitempty"`
	}{
		ID:         e.ID.String(),
		Type:       e.Type,
		ClientID:   int64(e.ClientID),
		OccurredAt: e.OccurredAt,
		Payload:    e.Payload,
	})
}
