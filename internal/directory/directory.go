// Package directory keeps the downstream view of tokenized accounts that the
// account event handlers maintain. It never holds account numbers, only the
// token and a masked fingerprint.
package directory

//go:generate mockgen -source=directory.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"time"

	id "tokenvault/pkg/domain"
)

// ErrAlreadyRegistered rejects a second registration of the same account.
var ErrAlreadyRegistered = errors.New("account already registered in directory")

// Entry is one account as seen by the directory.
type Entry struct {
	AccountID    id.AccountID
	ClientID     id.ClientID
	Token        string
	Masked       string
	CardBinID    id.CardBinID
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// EntryUpdate carries the mutable part of an entry.
type EntryUpdate struct {
	Token     string
	Masked    string
	UpdatedAt time.Time
}

// Store is the directory contract used by the event handlers.
//
//   - Register fails with ErrAlreadyRegistered when the account id exists
//   - Update fails with sentinel.ErrNotFound when the entry is absent
//   - Deregister of an absent entry succeeds
//
// Every operation is scoped to the tenant.
type Store interface {
	Register(ctx context.Context, entry Entry) error
	Update(ctx context.Context, clientID id.ClientID, accountID id.AccountID, update EntryUpdate) error
	Deregister(ctx context.Context, clientID id.ClientID, accountID id.AccountID) error
	Get(ctx context.Context, clientID id.ClientID, accountID id.AccountID) (*Entry, error)
	List(ctx context.Context, clientID id.ClientID) ([]*Entry, error)
}
