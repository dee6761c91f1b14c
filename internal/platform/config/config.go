package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Server    Server          `envPrefix:"TOKENVAULT_"`
	Log       Log             `envPrefix:"TOKENVAULT_LOG_"`
	Postgres  PostgresConfig  `envPrefix:"TOKENVAULT_POSTGRES_"`
	Redis     RedisConfig     `envPrefix:"TOKENVAULT_REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"TOKENVAULT_KAFKA_"`
	Crypto    CryptoConfig    `envPrefix:"TOKENVAULT_CRYPTO_"`
	CardBin   CardBinConfig   `envPrefix:"TOKENVAULT_CARDBIN_"`
	RateLimit RateLimitConfig `envPrefix:"TOKENVAULT_RATELIMIT_"`
	Audit     AuditConfig     `envPrefix:"TOKENVAULT_AUDIT_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type Log struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// PostgresConfig selects the driver and pool sizing. Driver is "postgres"
// (lib/pq) or "pgx".
type PostgresConfig struct {
	DSN             string        `env:"DSN"`
	Driver          string        `env:"DRIVER" envDefault:"pgx"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

// RedisConfig configures the shared Redis client. An empty URL disables the
// token cache and falls back to in-memory idempotency claims.
type RedisConfig struct {
	URL            string        `env:"URL"`
	PoolSize       int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns   int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout    time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	TokenCacheTTL  time.Duration `env:"TOKEN_CACHE_TTL" envDefault:"5m"`
	ClaimTTL       time.Duration `env:"CLAIM_TTL" envDefault:"24h"`
	ClaimLeaseTime time.Duration `env:"CLAIM_LEASE" envDefault:"2m"`
}

// KafkaConfig configures the integration event consumer. No brokers means
// the consumer is not started.
type KafkaConfig struct {
	Brokers     []string      `env:"BROKERS" envSeparator:","`
	Group       string        `env:"GROUP" envDefault:"tokenvault-directory"`
	Topic       string        `env:"TOPIC" envDefault:"account-events"`
	DLQTopic    string        `env:"DLQ_TOPIC" envDefault:"account-events-dlq"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"BACKOFF" envDefault:"500ms"`
	MaxBackoff  time.Duration `env:"MAX_BACKOFF" envDefault:"30s"`
	CreateTopic bool          `env:"CREATE_TOPICS" envDefault:"false"`
	Partitions  int32         `env:"PARTITIONS" envDefault:"3"`
}

// CryptoConfig holds the keyring. Keys maps key id to base64 key material.
type CryptoConfig struct {
	ActiveKeyID string            `env:"ACTIVE_KEY_ID"`
	Keys        map[string]string `env:"KEYS" envSeparator:"," envKeyValSeparator:":"`
	// RotateOnStart runs one batch re-encryption pass at startup.
	RotateOnStart     bool `env:"ROTATE_ON_START" envDefault:"false"`
	RotationBatchSize int  `env:"ROTATION_BATCH_SIZE" envDefault:"100"`
}

// CardBinConfig selects the BIN classifier. Mode is "static" or "http".
type CardBinConfig struct {
	Mode             string        `env:"MODE" envDefault:"static"`
	URL              string        `env:"URL"`
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"2s"`
	FailureThreshold int           `env:"BREAKER_FAILURES" envDefault:"5"`
	SuccessThreshold int           `env:"BREAKER_SUCCESSES" envDefault:"2"`
	Cooldown         time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// RateLimitConfig bounds token resolutions per client. The quota is shared
// through Redis when it is configured.
type RateLimitConfig struct {
	Disabled     bool          `env:"DISABLED" envDefault:"false"`
	ResolveLimit int           `env:"RESOLVE_LIMIT" envDefault:"600"`
	Window       time.Duration `env:"WINDOW" envDefault:"1m"`
}

// AuditConfig sizes the in-process audit buffer and its flush cadence.
type AuditConfig struct {
	BufferSize    int           `env:"BUFFER_SIZE" envDefault:"10000"`
	BatchSize     int           `env:"BATCH_SIZE" envDefault:"200"`
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"1s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	switch c.Postgres.Driver {
	case "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("unsupported postgres driver %q", c.Postgres.Driver))
	}
	if c.Crypto.ActiveKeyID == "" {
		errs = append(errs, errors.New("crypto active key id is required"))
	} else if _, ok := c.Crypto.Keys[c.Crypto.ActiveKeyID]; !ok {
		errs = append(errs, fmt.Errorf("active key %q has no key material", c.Crypto.ActiveKeyID))
	}
	switch c.CardBin.Mode {
	case "static":
	case "http":
		if c.CardBin.URL == "" {
			errs = append(errs, errors.New("cardbin url is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported cardbin mode %q", c.CardBin.Mode))
	}
	if !c.RateLimit.Disabled && (c.RateLimit.ResolveLimit < 1 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate limit needs a positive limit and window"))
	}
	if c.Kafka.MaxAttempts < 1 {
		errs = append(errs, errors.New("kafka max attempts must be at least 1"))
	}
	return errors.Join(errs...)
}
