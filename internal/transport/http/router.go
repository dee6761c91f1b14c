package httptransport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenvault/pkg/platform/httputil"
)

// RouteRegistrar is implemented by every bounded-context handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps is what the router needs from process wiring.
type Deps struct {
	Handlers []RouteRegistrar
	Health   []HealthCheck
	Gatherer prometheus.Gatherer
}

// NewRouter wires the public endpoints together with /healthz and /metrics.
// Business routes carry their own middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, h := range deps.Handlers {
		h.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		var failed []error
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = "unavailable"
				failed = append(failed, fmt.Errorf("%s: %w", c.Name, err))
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		status := http.StatusOK
		if err := errors.Join(failed...); err != nil {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
