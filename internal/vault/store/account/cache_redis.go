package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/models"
	"tokenvault/internal/vault/ports"
	id "tokenvault/pkg/domain"
)

// Backend is a store that can serve both the core and the rotation job.
type Backend interface {
	ports.AccountStore
	ports.KeyRotationStore
}

// RedisCache is a read-through cache for FindByToken in front of a Backend.
// Fingerprint lookups always go to the backend because dedup decisions must
// see the store of record.
//
// Writes evict before and after touching the backend: a failed first eviction
// aborts the write so a disabled token can never keep resolving from cache.
// Every eviction also raises the account's fence to a fresh epoch. A miss
// notes the epoch before reading the backend and only fills the cache when no
// fence was raised since, so a read that raced a write cannot refill stale data.
type RedisCache struct {
	inner   Backend
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRedisCache wraps inner with a token cache.
func NewRedisCache(inner Backend, client *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *RedisCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisCache{inner: inner, client: client, ttl: ttl, logger: logger, metrics: m}
}

type cachedAccount struct {
	ID             string    `json:"id"`
	Token          string    `json:"token"`
	ClientID       int64     `json:"client_id"`
	Prefix         string    `json:"prefix"`
	Suffix         string    `json:"suffix"`
	Ciphertext     []byte    `json:"ciphertext"`
	IV             []byte    `json:"iv"`
	KeyID          string    `json:"key_id"`
	ExpirationDate string    `json:"expiration_date"`
	HolderEmail    string    `json:"holder_email"`
	CardBinID      int       `json:"card_bin_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const epochKey = "tokenvault:account-epoch"

// evictScript drops the cached entry of an account and fences it at a fresh epoch.
// KEYS: index, epoch, fence. ARGV: fence ttl in ms.
var evictScript = redis.NewScript(`
local cached = redis.call('GET', KEYS[1])
if cached then
	redis.call('DEL', cached, KEYS[1])
end
local epoch = redis.call('INCR', KEYS[2])
redis.call('SET', KEYS[3], epoch, 'PX', ARGV[1])
return epoch
`)

// fillScript caches an account unless its fence is newer than the read epoch.
// KEYS: token, index, fence. ARGV: read epoch, payload, ttl in ms (0 = no expiry).
var fillScript = redis.NewScript(`
local fence = redis.call('GET', KEYS[3])
if fence and tonumber(fence) > tonumber(ARGV[1]) then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
	redis.call('SET', KEYS[2], KEYS[1], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
	redis.call('SET', KEYS[2], KEYS[1])
end
return 1
`)

func tokenKey(clientID id.ClientID, token string) string {
	return fmt.Sprintf("tokenvault:account:%d:%s", clientID, token)
}

func indexKey(accountID id.AccountID) string {
	return "tokenvault:account-index:" + accountID.String()
}

func fenceKey(accountID id.AccountID) string {
	return "tokenvault:account-fence:" + accountID.String()
}

func (c *RedisCache) FindByToken(ctx context.Context, token string, clientID id.ClientID) (*models.Account, error) {
	key := tokenKey(clientID, token)
	var cachedCmd, epochCmd *redis.StringCmd
	// Errors are read per command below; Pipelined only reports the first one.
	_, _ = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		cachedCmd = pipe.Get(ctx, key)
		epochCmd = pipe.Get(ctx, epochKey)
		return nil
	})
	readEpoch, epochErr := epochCmd.Int64()
	if errors.Is(epochErr, redis.Nil) {
		readEpoch, epochErr = 0, nil
	}

	raw, err := cachedCmd.Bytes()
	switch {
	case err == nil:
		var cached cachedAccount
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.record(func(m *metrics.Metrics) { m.IncrementCacheHit() })
			return cached.toModel()
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached account", "client_id", clientID)
	case errors.Is(err, redis.Nil):
		c.record(func(m *metrics.Metrics) { m.IncrementCacheMiss() })
	default:
		c.record(func(m *metrics.Metrics) { m.IncrementCacheError() })
		c.logger.WarnContext(ctx, "token cache read failed", "error", err)
	}

	account, err := c.inner.FindByToken(ctx, token, clientID)
	if err != nil {
		return nil, err
	}
	if epochErr == nil {
		c.store(ctx, key, account, readEpoch)
	}
	return account, nil
}

func (c *RedisCache) FindByFingerprint(ctx context.Context, fingerprint models.Fingerprint, clientID id.ClientID) (*models.Account, error) {
	return c.inner.FindByFingerprint(ctx, fingerprint, clientID)
}

func (c *RedisCache) Insert(ctx context.Context, account *models.Account) (id.AccountID, error) {
	return c.inner.Insert(ctx, account)
}

func (c *RedisCache) Update(ctx context.Context, accountID id.AccountID, update models.AccountUpdate) error {
	if err := c.evict(ctx, accountID); err != nil {
		return err
	}
	if err := c.inner.Update(ctx, accountID, update); err != nil {
		return err
	}
	c.evictAfterWrite(ctx, accountID)
	return nil
}

func (c *RedisCache) Disable(ctx context.Context, accountID id.AccountID, at time.Time) error {
	if err := c.evict(ctx, accountID); err != nil {
		return err
	}
	if err := c.inner.Disable(ctx, accountID, at); err != nil {
		return err
	}
	c.evictAfterWrite(ctx, accountID)
	return nil
}

func (c *RedisCache) ListEncryptedWithOtherKey(ctx context.Context, keyID string, after id.AccountID, limit int) ([]*models.Account, error) {
	return c.inner.ListEncryptedWithOtherKey(ctx, keyID, after, limit)
}

// RotateEncryption evicts around the backend write like Update does. A
// skipped rotation still evicts, which only costs one extra miss.
func (c *RedisCache) RotateEncryption(ctx context.Context, accountID id.AccountID, expectedKeyID string, expectedUpdatedAt time.Time, encrypted models.EncryptedNumber) error {
	if err := c.evict(ctx, accountID); err != nil {
		return err
	}
	if err := c.inner.RotateEncryption(ctx, accountID, expectedKeyID, expectedUpdatedAt, encrypted); err != nil {
		return err
	}
	c.evictAfterWrite(ctx, accountID)
	return nil
}

func (c *RedisCache) store(ctx context.Context, key string, account *models.Account, readEpoch int64) {
	payload, err := json.Marshal(fromModel(account))
	if err != nil {
		return
	}
	filled, err := fillScript.Run(ctx, c.client,
		[]string{key, indexKey(account.ID), fenceKey(account.ID)},
		readEpoch, payload, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.WarnContext(ctx, "token cache write failed", "error", err)
		return
	}
	if filled == 0 {
		c.logger.DebugContext(ctx, "token cache fill fenced by a concurrent write", "account_id", account.ID)
	}
}

func (c *RedisCache) evict(ctx context.Context, accountID id.AccountID) error {
	err := evictScript.Run(ctx, c.client,
		[]string{indexKey(accountID), epochKey, fenceKey(accountID)},
		c.fenceTTL().Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("evict token cache: %w", err)
	}
	return nil
}

// fenceTTL must outlast any backend read that started before the eviction.
func (c *RedisCache) fenceTTL() time.Duration {
	return max(c.ttl, time.Minute)
}

func (c *RedisCache) evictAfterWrite(ctx context.Context, accountID id.AccountID) {
	if err := c.evict(ctx, accountID); err != nil {
		c.logger.WarnContext(ctx, "token cache eviction after write failed",
			"account_id", accountID,
			"error", err,
		)
	}
}

func (c *RedisCache) record(fn func(m *metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}

func fromModel(a *models.Account) cachedAccount {
	return cachedAccount{
		ID:             a.ID.String(),
		Token:          a.Token,
		ClientID:       int64(a.ClientID),
		Prefix:         a.Fingerprint.Prefix,
		Suffix:         a.Fingerprint.Suffix,
		Ciphertext:     a.Encrypted.Ciphertext,
		IV:             a.Encrypted.IV,
		KeyID:          a.Encrypted.KeyID,
		ExpirationDate: a.ExpirationDate,
		HolderEmail:    a.HolderEmail,
		CardBinID:      int(a.CardBinID),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (c cachedAccount) toModel() (*models.Account, error) {
	accountID, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, fmt.Errorf("cached account id: %w", err)
	}
	return &models.Account{
		ID:          id.AccountID(accountID),
		Token:       c.Token,
		ClientID:    id.ClientID(c.ClientID),
		Fingerprint: models.Fingerprint{Prefix: c.Prefix, Suffix: c.Suffix},
		Encrypted: models.EncryptedNumber{
			Ciphertext: c.Ciphertext,
			IV:         c.IV,
			KeyID:      c.KeyID,
		},
		ExpirationDate: c.ExpirationDate,
		HolderEmail:    c.HolderEmail,
		CardBinID:      id.CardBinID(c.CardBinID),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}
