package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TOKENVAULT_CRYPTO_ACTIVE_KEY_ID", "k1")
	t.Setenv("TOKENVAULT_CRYPTO_KEYS", "k1:MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "pgx", cfg.Postgres.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TokenCacheTTL)
	assert.Equal(t, "account-events", cfg.Kafka.Topic)
	assert.Equal(t, 3, cfg.Kafka.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Kafka.MaxBackoff)
	assert.Equal(t, "static", cfg.CardBin.Mode)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 600, cfg.RateLimit.ResolveLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10000, cfg.Audit.BufferSize)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKENVAULT_POSTGRES_DRIVER", "postgres")
	t.Setenv("TOKENVAULT_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("TOKENVAULT_CRYPTO_KEYS", "k0:AAAA,k1:BBBB")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Postgres.Driver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, map[string]string{"k0": "AAAA", "k1": "BBBB"}, cfg.Crypto.Keys)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Postgres:  PostgresConfig{Driver: "pgx"},
			Kafka:     KafkaConfig{MaxAttempts: 1},
			Crypto:    CryptoConfig{ActiveKeyID: "k1", Keys: map[string]string{"k1": "x"}},
			CardBin:   CardBinConfig{Mode: "static"},
			RateLimit: RateLimitConfig{ResolveLimit: 10, Window: time.Minute},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})
	t.Run("unknown driver", func(t *testing.T) {
		cfg := valid()
		cfg.Postgres.Driver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "unsupported postgres driver")
	})
	t.Run("active key without material", func(t *testing.T) {
		cfg := valid()
		cfg.Crypto.ActiveKeyID = "k2"
		assert.ErrorContains(t, cfg.Validate(), "no key material")
	})
	t.Run("http cardbin without url", func(t *testing.T) {
		cfg := valid()
		cfg.CardBin.Mode = "http"
		assert.ErrorContains(t, cfg.Validate(), "cardbin url is required")
	})
	t.Run("zero rate limit", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.ResolveLimit = 0
		assert.ErrorContains(t, cfg.Validate(), "rate limit")
		cfg.RateLimit.Disabled = true
		assert.NoError(t, cfg.Validate())
	})
	t.Run("zero attempts", func(t *testing.T) {
		cfg := valid()
		cfg.Kafka.MaxAttempts = 0
		assert.ErrorContains(t, cfg.Validate(), "max attempts")
	})
}
