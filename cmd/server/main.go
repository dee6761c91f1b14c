package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	audithandler "tokenvault/internal/audit"
	"tokenvault/internal/directory"
	"tokenvault/internal/events/claims"
	eventconsumer "tokenvault/internal/events/consumer"
	"tokenvault/internal/events/dispatch"
	"tokenvault/internal/events/handlers"
	eventmetrics "tokenvault/internal/events/metrics"
	"tokenvault/internal/events/publisher"
	"tokenvault/internal/platform/config"
	"tokenvault/internal/platform/httpserver"
	"tokenvault/internal/platform/kafka"
	kafkaconsumer "tokenvault/internal/platform/kafka/consumer"
	"tokenvault/internal/platform/kafka/producer"
	"tokenvault/internal/platform/logger"
	httpmetrics "tokenvault/internal/platform/metrics"
	"tokenvault/internal/platform/postgres"
	platformredis "tokenvault/internal/platform/redis"
	ratelimitmetrics "tokenvault/internal/ratelimit/metrics"
	ratelimitmw "tokenvault/internal/ratelimit/middleware"
	ratelimitmodels "tokenvault/internal/ratelimit/models"
	"tokenvault/internal/ratelimit/store/bucket"
	httptransport "tokenvault/internal/transport/http"
	"tokenvault/internal/vault/cardbin"
	"tokenvault/internal/vault/crypto"
	vaulthandler "tokenvault/internal/vault/handler"
	vaultmetrics "tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/ports"
	"tokenvault/internal/vault/service"
	"tokenvault/internal/vault/store/account"
	"tokenvault/pkg/platform/audit"
	auditpublisher "tokenvault/pkg/platform/audit/publisher"
	auditpostgres "tokenvault/pkg/platform/audit/store/postgres"
	auditworker "tokenvault/pkg/platform/audit/worker"
	"tokenvault/pkg/platform/circuit"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in internal service packages.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("tokenvault exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(db, log); err != nil {
			return err
		}
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	keyring, err := crypto.NewKeyringFromBase64(cfg.Crypto.ActiveKeyID, cfg.Crypto.Keys)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	vaultMetrics := vaultmetrics.New(reg)
	var accounts account.Backend = account.NewPostgres(db)
	if redisClient != nil {
		accounts = account.NewRedisCache(accounts, redisClient.Client, cfg.Redis.TokenCacheTTL, log, vaultMetrics)
		log.Info("token cache enabled", "ttl", cfg.Redis.TokenCacheTTL)
	}

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(vaultMetrics),
	}
	health := []httptransport.HealthCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	g, gctx := errgroup.WithContext(ctx)

	auditStore := auditpostgres.New(db)
	auditBuffer := audit.NewRingBuffer(cfg.Audit.BufferSize)
	auditor := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithBuffer(auditBuffer),
		auditpublisher.WithLogger(log),
	)
	auditDrain := auditworker.NewWorker(auditStore, auditBuffer,
		auditworker.WithBatchSize(cfg.Audit.BatchSize),
		auditworker.WithInterval(cfg.Audit.FlushInterval),
		auditworker.WithLogger(log),
	)
	g.Go(func() error { return auditDrain.Run(gctx) })
	serviceOpts = append(serviceOpts, service.WithAuditPublisher(auditor))

	if len(cfg.Kafka.Brokers) > 0 {
		events, err := startEvents(gctx, g, cfg, db, redisClient, reg, log)
		if err != nil {
			return err
		}
		defer events.Close()
		serviceOpts = append(serviceOpts, service.WithEventPublisher(events.publisher))
		health = append(health, httptransport.HealthCheck{Name: "kafka", Check: events.producer.Ping})
	} else {
		log.Warn("no kafka brokers configured, account events are not published or consumed")
	}

	svc, err := service.New(accounts, keyring, newCardBins(cfg.CardBin, log), serviceOpts...)
	if err != nil {
		return err
	}

	if cfg.Crypto.RotateOnStart {
		rotator, err := service.NewRotator(accounts, keyring,
			service.WithBatchSize(cfg.Crypto.RotationBatchSize),
			service.WithRotatorLogger(log),
			service.WithRotatorMetrics(vaultMetrics),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			_, err := rotator.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	resolveLimit := ratelimitmw.New(newLimiter(redisClient), log,
		ratelimitmw.WithLimit(cfg.RateLimit.ResolveLimit, cfg.RateLimit.Window),
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
		ratelimitmw.WithAuditor(auditor),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Handlers: []httptransport.RouteRegistrar{
			vaulthandler.New(svc, log, httpmetrics.New(reg),
				vaulthandler.WithResolveGuard(resolveLimit.PerClient(ratelimitmodels.ClassResolve)),
			),
			directory.NewHandler(directory.NewPostgres(db), log),
			audithandler.NewHandler(auditor, log),
		},
		Health:   health,
		Gatherer: reg,
	})
	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error {
		log.Info("starting tokenvault", "addr", cfg.Server.Addr)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})

	return g.Wait()
}

// newLimiter shares resolution quotas across replicas through Redis when it
// is configured, and keeps them per process otherwise.
func newLimiter(redisClient *platformredis.Client) ratelimitmw.Limiter {
	if redisClient == nil {
		return bucket.NewInMemoryBucketStore()
	}
	return bucket.NewRedis(redisClient.Client)
}

// newCardBins returns the static BIN table, or the HTTP classifier guarded by
// a circuit breaker that falls back to the static table while open.
func newCardBins(cfg config.CardBinConfig, log *slog.Logger) ports.CardBinPort {
	static := cardbin.NewStatic(nil)
	if cfg.Mode != "http" {
		return static
	}
	breaker := circuit.New("cardbin",
		circuit.WithFailureThreshold(cfg.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.SuccessThreshold),
		circuit.WithCooldown(cfg.Cooldown),
	)
	return cardbin.NewHTTP(cfg.URL, cfg.Timeout,
		cardbin.WithBreaker(breaker),
		cardbin.WithFallback(static),
		cardbin.WithLogger(log),
	)
}

type eventPipeline struct {
	producer  *producer.Producer
	publisher *publisher.Publisher
	consumer  *kafkaconsumer.Consumer
}

func (p *eventPipeline) Close() {
	p.consumer.Close()
	p.producer.Close()
}

// startEvents wires the account event publisher and the directory consumer,
// and schedules the consumer on g.
func startEvents(ctx context.Context, g *errgroup.Group, cfg config.Config, db *sql.DB, redisClient *platformredis.Client, reg prometheus.Registerer, log *slog.Logger) (*eventPipeline, error) {
	prod, err := producer.New(cfg.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	if cfg.Kafka.CreateTopic {
		// -1 takes the broker's default replication factor.
		if err := kafka.EnsureTopics(ctx, prod.Client(), cfg.Kafka.Partitions, -1, cfg.Kafka.Topic, cfg.Kafka.DLQTopic); err != nil {
			prod.Close()
			return nil, err
		}
	}
	pub, err := publisher.New(prod, cfg.Kafka.Topic)
	if err != nil {
		prod.Close()
		return nil, err
	}

	eventMetrics := eventmetrics.New(reg)
	registry, err := handlers.NewRegistry(directory.NewPostgres(db), log)
	if err != nil {
		prod.Close()
		return nil, err
	}
	manager, err := dispatch.NewManager(registry, dispatch.WithLogger(log), dispatch.WithMetrics(eventMetrics))
	if err != nil {
		prod.Close()
		return nil, err
	}

	var claimStore claims.Store
	if redisClient != nil {
		claimStore = claims.NewRedis(redisClient.Client)
	} else {
		log.Warn("no redis configured, event claims are kept in process memory")
		claimStore = claims.NewInMemory()
	}
	handler, err := eventconsumer.NewHandler(manager, eventconsumer.Config{
		MaxAttempts:     cfg.Kafka.MaxAttempts,
		Backoff:         cfg.Kafka.Backoff,
		MaxBackoff:      cfg.Kafka.MaxBackoff,
		DeadLetterTopic: cfg.Kafka.DLQTopic,
		ClaimLease:      cfg.Redis.ClaimLeaseTime,
		CompletedTTL:    cfg.Redis.ClaimTTL,
	},
		eventconsumer.WithClaims(claimStore),
		eventconsumer.WithDeadLetter(prod),
		eventconsumer.WithLogger(log),
		eventconsumer.WithMetrics(eventMetrics),
	)
	if err != nil {
		prod.Close()
		return nil, err
	}

	cons, err := kafkaconsumer.New(kafkaconsumer.Config{
		Brokers: cfg.Kafka.Brokers,
		Group:   cfg.Kafka.Group,
		Topics:  []string{cfg.Kafka.Topic},
	}, handler, []kafkaconsumer.Option{kafkaconsumer.WithLogger(log)})
	if err != nil {
		prod.Close()
		return nil, err
	}

	g.Go(func() error {
		log.Info("starting account event consumer", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group)
		return cons.Run(ctx)
	})
	return &eventPipeline{producer: prod, publisher: pub, consumer: cons}, nil
}
