// Package claims records which integration events are being or have been
// processed, so redelivered events run their side effects at most once.
package claims

import (
	"context"
	"errors"
	"time"

	id "tokenvault/pkg/domain"
)

// ErrCompleted means the event was already processed successfully.
var ErrCompleted = errors.New("event already processed")

// Store is the claim contract.
//
//   - Claim returns nil when the caller now owns the event for lease
//   - Claim returns ErrCompleted when the event was already processed
//   - Claim returns sentinel.ErrAlreadyClaimed while another owner's lease
//     is live
//   - Release drops the caller's own lease so a redelivery can claim again
type Store interface {
	Claim(ctx context.Context, eventID id.EventID, lease time.Duration) error
	Complete(ctx context.Context, eventID id.EventID, ttl time.Duration) error
	Release(ctx context.Context, eventID id.EventID) error
}
