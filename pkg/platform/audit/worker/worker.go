package worker

import (
	"context"
	"log/slog"
	"time"

	audit "tokenvault/pkg/platform/audit"
)

const flushTimeout = 5 * time.Second

// Worker drains a RingBuffer into the audit store in batches. A failed
// batch is logged and dropped; auditing never blocks the vault.
type Worker struct {
	store     audit.Store
	buffer    *audit.RingBuffer
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

type Option func(*Worker)

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store audit.Store, buffer *audit.RingBuffer, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		buffer:    buffer,
		batchSize: 100,
		interval:  time.Second,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run flushes on every tick until ctx ends, then drains what is left.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
			defer cancel()
			w.Flush(drainCtx)
			return nil
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush writes every buffered event and returns how many were persisted.
func (w *Worker) Flush(ctx context.Context) int {
	written := 0
	for {
		batch := w.buffer.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return written
		}
		if err := w.store.Append(ctx, batch...); err != nil {
			w.logger.ErrorContext(ctx, "failed to persist audit batch",
				"batch_size", len(batch),
				"error", err,
			)
			continue
		}
		written += len(batch)
	}
}
