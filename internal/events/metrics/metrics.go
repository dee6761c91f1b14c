package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes.
const (
	OutcomeHandled   = "handled"
	OutcomeFailed    = "failed"
	OutcomeUnmatched = "unmatched"
)

// Consumer outcomes.
const (
	ConsumeProcessed  = "processed"
	ConsumeDuplicate  = "duplicate"
	ConsumeRetried    = "retried"
	ConsumeDeadLetter = "dead_letter"
	ConsumeMalformed  = "malformed"
)

// Metrics covers event dispatch and the event consumer.
type Metrics struct {
	Dispatches       *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	Consumed         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_event_dispatches_total",
			Help: "Event dispatches by event type, handler and outcome",
		}, []string{"event_type", "handler", "outcome"}),
		DispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenvault_event_dispatch_duration_seconds",
			Help:    "Duration of handler execution by event type",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		Consumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_events_consumed_total",
			Help: "Consumed event records by outcome",
		}, []string{"outcome"}),
	}
}
