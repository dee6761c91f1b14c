package publisher

import (
	"context"
	"log/slog"

	id "tokenvault/pkg/domain"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/requestcontext"
)

// Publisher captures audit events. Without a buffer every Emit writes
// through to the store; with one, Emit only enqueues and a worker.Worker
// drains the buffer.
type Publisher struct {
	store  audit.Store
	buffer *audit.RingBuffer
	logger *slog.Logger
}

type Option func(*Publisher)

// WithBuffer makes Emit non-blocking. Drain buf with a worker.Worker.
func WithBuffer(buf *audit.RingBuffer) Option {
	return func(p *Publisher) {
		p.buffer = buf
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records event. Timestamp and RequestID default to the request-scoped
// values carried by ctx.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}
	if p.buffer.Enqueue(event) {
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event",
			"dropped_total", p.buffer.Dropped(),
		)
	}
	return nil
}

// List returns the most recent events recorded for clientID.
func (p *Publisher) List(ctx context.Context, clientID id.ClientID, limit int) ([]audit.Event, error) {
	return p.store.ListByClient(ctx, clientID, limit)
}
