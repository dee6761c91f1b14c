// Package consumer runs a Kafka consumer group and hands each record to a
// Handler. Offsets are committed only after the handler accepted a record,
// so delivery is at-least-once.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed record, detached from the client library.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one message. Returning nil commits the message. An error
// stops the consumer without committing it, so the record is redelivered
// after restart.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

type Config struct {
	Brokers []string
	Group   string
	Topics  []string
}

// Consumer polls a consumer group and processes records sequentially per poll.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

type Option func(c *Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// New creates a consumer. Extra kgo options are appended after the defaults.
func New(cfg Config, handler Handler, opts []Option, kopts ...kgo.Opt) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Group == "" {
		return nil, errors.New("consumer group is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("at least one topic is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}
	client, err := kgo.NewClient(append(base, kopts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	c := &Consumer{
		client:  client,
		handler: handler,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run polls until ctx ends or the handler fails. It returns nil on a clean
// shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			c.client.AllowRebalance()
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		err := c.process(ctx, fetches)
		c.client.AllowRebalance()
		if err != nil {
			return err
		}
	}
}

func (c *Consumer) process(ctx context.Context, fetches kgo.Fetches) error {
	var handled []*kgo.Record
	var handleErr error

	iter := fetches.RecordIter()
	for !iter.Done() {
		record := iter.Next()
		msg := toMessage(record)
		if err := c.handler.Handle(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, "message handling failed, stopping consumer",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			handleErr = fmt.Errorf("handle %s/%d@%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
			break
		}
		handled = append(handled, record)
	}

	if len(handled) > 0 {
		// Commit with a fresh context so a shutdown mid-poll still records
		// the work already done.
		commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.client.CommitRecords(commitCtx, handled...); err != nil {
			return errors.Join(handleErr, fmt.Errorf("commit offsets: %w", err))
		}
	}
	return handleErr
}

// Ping checks broker reachability.
func (c *Consumer) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func (c *Consumer) Close() {
	c.client.Close()
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
