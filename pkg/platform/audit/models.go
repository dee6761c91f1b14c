package audit

import (
	"context"
	"time"

	id "tokenvault/pkg/domain"
)

// Category classifies audit events by their primary purpose.
// Categories drive retention: compliance rows are kept the longest.
type Category string

const (
	// CategoryCompliance covers access to clear account numbers and terminal
	// account changes.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers refused or throttled access attempts.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations Category = "operations"
)

// Action names what happened to an account.
type Action string

const (
	ActionAccountResolved Action = "account_resolved"
	ActionResolveRefused  Action = "resolve_refused"
	ActionRateLimited     Action = "rate_limited"
	ActionAccountDisabled Action = "account_disabled"
	ActionAccountCreated  Action = "account_created"
)

var actionCategories = map[Action]Category{
	ActionAccountResolved: CategoryCompliance,
	ActionAccountDisabled: CategoryCompliance,
	ActionResolveRefused:  CategorySecurity,
	ActionRateLimited:     CategorySecurity,
	ActionAccountCreated:  CategoryOperations,
}

// Category returns the Category of the action. Unknown actions default to
// CategoryOperations.
func (a Action) Category() Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Event records one access to the vault. It never carries the account
// number, the token, or any fingerprint material.
type Event struct {
	Timestamp time.Time
	Action    Action
	ClientID  id.ClientID
	// AccountID is nil when the access did not match an account.
	AccountID id.AccountID
	Outcome   string
	RequestID string
}

// Store persists audit events. Append is called with batches.
type Store interface {
	Append(ctx context.Context, events ...Event) error
	ListByClient(ctx context.Context, clientID id.ClientID, limit int) ([]Event, error)
}
