package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the vault module.
// Tracks operation outcomes, critical path durations and token cache efficiency.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TokenCacheLookups *prometheus.CounterVec
	AccountsRotated   prometheus.Counter
	RotationFailures  prometheus.Counter
	PublishFailures   *prometheus.CounterVec
}

// New creates the vault metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_operations_total",
			Help: "Vault operations by operation and outcome code",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenvault_operation_duration_seconds",
			Help:    "Duration of vault operations including port calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		TokenCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_token_cache_lookups_total",
			Help: "Token cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		AccountsRotated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokenvault_accounts_rotated_total",
			Help: "Accounts re-encrypted under the active key by the rotation job",
		}),
		RotationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokenvault_rotation_failures_total",
			Help: "Accounts the rotation job failed to re-encrypt",
		}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_event_publish_failures_total",
			Help: "Account events that could not be published, by event type",
		}, []string{"event_type"}),
	}
}

// ObserveOperation records the outcome and duration of a vault operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCacheHit() {
	m.TokenCacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) IncrementCacheMiss() {
	m.TokenCacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncrementCacheError() {
	m.TokenCacheLookups.WithLabelValues("error").Inc()
}
