package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
	DecisionError   = "error"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_ratelimit_decisions_total",
			Help: "Rate limit checks by endpoint class and decision",
		}, []string{"class", "decision"}),
	}
}

func (m *Metrics) Observe(class, decision string) {
	m.Decisions.WithLabelValues(class, decision).Inc()
}
