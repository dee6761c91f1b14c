package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

func TestInMemory_ClaimLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewInMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()
	eventID := id.EventID(uuid.New())

	require.NoError(t, store.Claim(ctx, eventID, time.Minute))
	assert.ErrorIs(t, store.Claim(ctx, eventID, time.Minute), sentinel.ErrAlreadyClaimed)

	require.NoError(t, store.Release(ctx, eventID))
	require.NoError(t, store.Claim(ctx, eventID, time.Minute), "released events can be claimed again")

	require.NoError(t, store.Complete(ctx, eventID, time.Hour))
	assert.ErrorIs(t, store.Claim(ctx, eventID, time.Minute), ErrCompleted)
	require.NoError(t, store.Release(ctx, eventID))
	assert.ErrorIs(t, store.Claim(ctx, eventID, time.Minute), ErrCompleted, "release never drops a completion")
}

func TestInMemory_Expiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewInMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()
	eventID := id.EventID(uuid.New())

	require.NoError(t, store.Claim(ctx, eventID, time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Claim(ctx, eventID, time.Minute), "an expired lease can be taken over")

	require.NoError(t, store.Complete(ctx, eventID, time.Hour))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Claim(ctx, eventID, time.Minute), "completion is only remembered for its ttl")
}
