// Package consumer turns consumed Kafka records into dispatched integration
// events. It adds the delivery guarantees the dispatch core leaves to its
// caller: per-event idempotency claims, bounded retries and a dead-letter
// topic.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"tokenvault/internal/events/claims"
	"tokenvault/internal/events/metrics"
	"tokenvault/internal/events/models"
	kafkaconsumer "tokenvault/internal/platform/kafka/consumer"
)

// Dead-letter headers.
const (
	HeaderReason            = "x-dlq-reason"
	HeaderError             = "x-dlq-error"
	HeaderAttempts          = "x-dlq-attempts"
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
)

const defaultMaxBackoff = 30 * time.Second

const (
	reasonMalformed = "malformed"
	reasonExhausted = "retries_exhausted"
)

// Dispatcher is satisfied by dispatch.Manager.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.IntegrationEvent) bool
}

// DeadLetterWriter is satisfied by the Kafka producer.
type DeadLetterWriter interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

type Config struct {
	MaxAttempts     int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	DeadLetterTopic string
	ClaimLease      time.Duration
	CompletedTTL    time.Duration
}

// Handler implements kafkaconsumer.Handler for account event records.
type Handler struct {
	dispatcher Dispatcher
	claims     claims.Store
	deadLetter DeadLetterWriter
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(h *Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithClaims enables per-event idempotency.
func WithClaims(store claims.Store) Option {
	return func(h *Handler) {
		h.claims = store
	}
}

// WithDeadLetter routes exhausted and malformed records to cfg.DeadLetterTopic.
// Without it such records are logged and committed.
func WithDeadLetter(w DeadLetterWriter) Option {
	return func(h *Handler) {
		h.deadLetter = w
	}
}

func NewHandler(dispatcher Dispatcher, cfg Config, opts ...Option) (*Handler, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 2 * time.Minute
	}
	if cfg.CompletedTTL <= 0 {
		cfg.CompletedTTL = 24 * time.Hour
	}
	h := &Handler{
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     slog.New(slog.DiscardHandler),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.deadLetter != nil && cfg.DeadLetterTopic == "" {
		return nil, errors.New("dead-letter topic is required with a dead-letter writer")
	}
	return h, nil
}

// Handle returns nil when the record may be committed: it was processed, was
// a duplicate, or was dead-lettered. It returns an error only when the
// record must be redelivered.
func (h *Handler) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	event, err := models.Decode(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "malformed event record",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"value", string(msg.Value),
			"error", err,
		)
		h.count(metrics.ConsumeMalformed)
		return h.toDeadLetter(ctx, msg, reasonMalformed, err, 0)
	}

	for attempt := 1; ; attempt++ {
		done, duplicate := h.attempt(ctx, event)
		if duplicate {
			h.logger.DebugContext(ctx, "skipping already processed event", "event_id", event.ID)
			h.count(metrics.ConsumeDuplicate)
			return nil
		}
		if done {
			h.count(metrics.ConsumeProcessed)
			return nil
		}
		if attempt >= h.cfg.MaxAttempts {
			h.logger.ErrorContext(ctx, "event processing exhausted retries",
				"event_id", event.ID,
				"event_type", event.Type,
				"client_id", event.ClientID,
				"attempts", attempt,
				"payload", string(event.Payload),
			)
			return h.toDeadLetter(ctx, msg, reasonExhausted, nil, attempt)
		}
		h.count(metrics.ConsumeRetried)
		if err := h.sleep(ctx, h.backoff(attempt)); err != nil {
			return err
		}
	}
}

// attempt claims and dispatches event once.
func (h *Handler) attempt(ctx context.Context, event models.IntegrationEvent) (done, duplicate bool) {
	if h.claims != nil {
		err := h.claims.Claim(ctx, event.ID, h.cfg.ClaimLease)
		switch {
		case errors.Is(err, claims.ErrCompleted):
			return true, true
		case err != nil:
			h.logger.WarnContext(ctx, "could not claim event",
				"event_id", event.ID,
				"error", err,
			)
			return false, false
		}
	}

	ok := h.dispatcher.Dispatch(ctx, event)

	if h.claims != nil {
		// Settle the claim even when the poll context is shutting down.
		settleCtx := context.WithoutCancel(ctx)
		var err error
		if ok {
			err = h.claims.Complete(settleCtx, event.ID, h.cfg.CompletedTTL)
		} else {
			err = h.claims.Release(settleCtx, event.ID)
		}
		if err != nil {
			h.logger.WarnContext(ctx, "could not settle event claim",
				"event_id", event.ID,
				"handled", ok,
				"error", err,
			)
		}
	}
	return ok, false
}

// backoff doubles per attempt up to MaxBackoff.
func (h *Handler) backoff(attempt int) time.Duration {
	d := h.cfg.Backoff
	for i := 1; i < attempt && d < h.cfg.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, h.cfg.MaxBackoff)
}

func (h *Handler) toDeadLetter(ctx context.Context, msg *kafkaconsumer.Message, reason string, cause error, attempts int) error {
	h.count(metrics.ConsumeDeadLetter)
	if h.deadLetter == nil {
		h.logger.WarnContext(ctx, "no dead-letter topic configured, dropping record",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"reason", reason,
		)
		return nil
	}
	headers := make(map[string]string, len(msg.Headers)+6)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderReason] = reason
	headers[HeaderAttempts] = strconv.Itoa(attempts)
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderOriginalPartition] = strconv.FormatInt(int64(msg.Partition), 10)
	headers[HeaderOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	if cause != nil {
		headers[HeaderError] = cause.Error()
	}
	if err := h.deadLetter.Produce(ctx, h.cfg.DeadLetterTopic, msg.Key, msg.Value, headers); err != nil {
		return fmt.Errorf("dead-letter record: %w", err)
	}
	h.logger.InfoContext(ctx, "record dead-lettered",
		"topic", msg.Topic,
		"offset", msg.Offset,
		"reason", reason,
	)
	return nil
}

func (h *Handler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.Consumed.WithLabelValues(outcome).Inc()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
