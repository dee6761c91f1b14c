// Package domain holds typed identifiers shared across bounded contexts.
//
// Usage: construct IDs with the Parse* functions at trust boundaries (HTTP
// headers, event payloads); direct conversion bypasses validation.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "tokenvault/pkg/domain-errors"
)

// ClientID identifies the tenant that owns accounts. Every vault lookup and
// write is scoped by it.
type ClientID int64

// AccountID is assigned by the account store when a record is inserted.
type AccountID uuid.UUID

// EventID identifies one integration event across redeliveries.
type EventID uuid.UUID

// CardBinID references a recognized card-brand classification.
type CardBinID int

// ParseClientID parses a positive decimal tenant identifier.
func ParseClientID(s string) (ClientID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "client id is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "client id must be a positive integer")
	}
	return ClientID(n), nil
}

func (c ClientID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

func (c ClientID) IsNil() bool {
	return c <= 0
}

// ParseAccountID parses a non-nil UUID account identifier.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
}

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a AccountID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}

// ParseEventID parses a non-nil UUID event identifier.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func (e EventID) String() string {
	return uuid.UUID(e).String()
}

// MarshalText renders the canonical UUID form in JSON and logs.
func (e EventID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e EventID) IsNil() bool {
	return uuid.UUID(e) == uuid.Nil
}

func (c CardBinID) IsNil() bool {
	return c <= 0
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" cannot be nil")
	}
	return u, nil
}
