package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tokenvault/internal/events/metrics"
	"tokenvault/internal/events/models"
)

// Manager dispatches each event to the first matching handler in its
// registry. It holds no mutable state and is safe for concurrent use.
type Manager struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(m *Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager seals registry; later registrations fail.
func NewManager(registry *Registry, opts ...Option) (*Manager, error) {
	if registry == nil {
		return nil, errors.New("handler registry is required")
	}
	registry.Seal()
	m := &Manager{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("tokenvault/internal/events/dispatch"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dispatch invokes the first handler whose Matches accepts event and returns
// its result. Later handlers are never consulted, even when the first one
// fails. An event no handler matches returns false.
func (m *Manager) Dispatch(ctx context.Context, event models.IntegrationEvent) bool {
	ctx, span := m.tracer.Start(ctx, "dispatch_event", trace.WithAttributes(
		attribute.String("tokenvault.event_id", event.ID.String()),
		attribute.String("tokenvault.event_type", string(event.Type)),
	))
	defer span.End()

	for h := range m.registry.All() {
		if !h.Matches(event) {
			continue
		}
		span.SetAttributes(attribute.String("tokenvault.handler", h.Name()))
		start := time.Now()
		ok := h.Handle(ctx, event)
		outcome := metrics.OutcomeHandled
		if !ok {
			outcome = metrics.OutcomeFailed
			span.SetStatus(codes.Error, "handler reported failure")
		}
		m.observe(event, h.Name(), outcome, start)
		return ok
	}

	m.logger.InfoContext(ctx, "no handler matched event",
		"event_id", event.ID,
		"event_type", event.Type,
		"client_id", event.ClientID,
	)
	span.SetStatus(codes.Error, "no handler matched")
	m.observe(event, "", metrics.OutcomeUnmatched, time.Time{})
	return false
}

func (m *Manager) observe(event models.IntegrationEvent, handler, outcome string, start time.Time) {
	if m.metrics == nil {
		return
	}
	eventType := string(event.Type)
	if eventType == "" {
		eventType = "untagged"
	}
	m.metrics.Dispatches.WithLabelValues(eventType, handler, outcome).Inc()
	if !start.IsZero() {
		m.metrics.DispatchDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}
}
