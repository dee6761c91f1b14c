package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/sentinel"
)

const (
	keyPrefix      = "tokenvault:event-claim:"
	completedValue = "done"
	inFlightPrefix = "processing:"
)

// releaseScript deletes the claim only if it still holds the caller's lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps claims as expiring Redis keys. Each store instance owns
// its leases under a random owner id.
type RedisStore struct {
	client *redis.Client
	owner  string
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, owner: inFlightPrefix + uuid.NewString()}
}

func claimKey(eventID id.EventID) string {
	return keyPrefix + eventID.String()
}

func (s *RedisStore) Claim(ctx context.Context, eventID id.EventID, lease time.Duration) error {
	key := claimKey(eventID)
	acquired, err := s.client.SetNX(ctx, key, s.owner, lease).Result()
	if err != nil {
		return fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if acquired {
		return nil
	}
	current, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// The lease expired between SETNX and GET; the next delivery can claim it.
		return fmt.Errorf("claim event %s: %w", eventID, sentinel.ErrAlreadyClaimed)
	case err != nil:
		return fmt.Errorf("read claim for event %s: %w", eventID, err)
	case current == completedValue:
		return ErrCompleted
	case current == s.owner:
		// Our own lease from an earlier attempt that was never released.
		return s.client.Expire(ctx, key, lease).Err()
	case strings.HasPrefix(current, inFlightPrefix):
		return fmt.Errorf("claim event %s: %w", eventID, sentinel.ErrAlreadyClaimed)
	default:
		return fmt.Errorf("unexpected claim value for event %s", eventID)
	}
}

func (s *RedisStore) Complete(ctx context.Context, eventID id.EventID, ttl time.Duration) error {
	if err := s.client.Set(ctx, claimKey(eventID), completedValue, ttl).Err(); err != nil {
		return fmt.Errorf("complete event %s: %w", eventID, err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, eventID id.EventID) error {
	if err := releaseScript.Run(ctx, s.client, []string{claimKey(eventID)}, s.owner).Err(); err != nil {
		return fmt.Errorf("release event %s: %w", eventID, err)
	}
	return nil
}
