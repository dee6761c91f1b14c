package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenvault/internal/ratelimit/metrics"
	"tokenvault/internal/ratelimit/models"
	"tokenvault/internal/ratelimit/store/bucket"
	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/audit/store/memory"
	"tokenvault/pkg/requestcontext"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("redis down")
}

type auditRecorder struct {
	store *memory.InMemoryStore
}

func (a auditRecorder) Emit(ctx context.Context, event audit.Event) error {
	return a.store.Append(ctx, event)
}

func serve(h http.Handler, clientID id.ClientID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/tok", nil)
	req = req.WithContext(requestcontext.WithClientID(req.Context(), clientID))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestPerClient_DeniesOverQuota(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	auditStore := memory.NewInMemoryStore()
	mw := New(bucket.NewInMemoryBucketStore(), slog.New(slog.DiscardHandler),
		WithLimit(2, time.Minute),
		WithMetrics(m),
		WithAuditor(auditRecorder{store: auditStore}),
	)
	h := mw.PerClient(models.ClassResolve)(okHandler())

	first := serve(h, 7)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, http.StatusOK, serve(h, 7).Code)

	denied := serve(h, 7)
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.NotEmpty(t, denied.Header().Get("Retry-After"))
	assert.Contains(t, denied.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, serve(h, 8).Code, "quota is per client")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("resolve", metrics.DecisionDenied)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Decisions.WithLabelValues("resolve", metrics.DecisionAllowed)))

	events, err := auditStore.ListByClient(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRateLimited, events[0].Action)
	assert.Equal(t, "resolve", events[0].Outcome)
}

func TestPerClient_FailsOpen(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	mw := New(failingLimiter{}, slog.New(slog.DiscardHandler), WithMetrics(m))

	rec := serve(mw.PerClient(models.ClassResolve)(okHandler()), 7)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("resolve", metrics.DecisionError)))
}

func TestPerClient_Disabled(t *testing.T) {
	mw := New(failingLimiter{}, slog.New(slog.DiscardHandler), WithDisabled(true), WithLimit(1, time.Minute))
	h := mw.PerClient(models.ClassResolve)(okHandler())

	for range 3 {
		rec := serve(h, 7)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}
