package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tokenvault/internal/ratelimit/metrics"
	"tokenvault/internal/ratelimit/models"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/requestcontext"
)

// Limiter is satisfied by the bucket stores.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Auditor records throttled requests.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  Auditor
	limit    int
	window   time.Duration
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit sets the per-client quota. Defaults to 600 requests per minute.
func WithLimit(limit int, window time.Duration) Option {
	return func(m *Middleware) {
		if limit > 0 && window > 0 {
			m.limit = limit
			m.window = window
		}
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func WithAuditor(auditor Auditor) Option {
	return func(m *Middleware) {
		m.auditor = auditor
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		limit:   600,
		window:  time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerClient limits requests per tenant. It must run after the client id
// has been placed in the request context. A limiter failure lets the
// request through.
func (m *Middleware) PerClient(class models.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			clientID := requestcontext.ClientID(ctx)
			key := string(class) + ":" + clientID.String()

			result, err := m.limiter.Allow(ctx, key, m.limit, m.window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check client rate limit",
					"class", class,
					"client_id", clientID,
					"error", err,
				)
				m.observe(class, metrics.DecisionError)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.observe(class, metrics.DecisionDenied)
				m.logger.WarnContext(ctx, "client rate limit exceeded",
					"class", class,
					"client_id", clientID,
					"retry_after", result.RetryAfter,
				)
				m.recordDenied(ctx, class)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests for this client"))
				return
			}

			m.observe(class, metrics.DecisionAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) observe(class models.Class, decision string) {
	if m.metrics != nil {
		m.metrics.Observe(string(class), decision)
	}
}

func (m *Middleware) recordDenied(ctx context.Context, class models.Class) {
	if m.auditor == nil {
		return
	}
	err := m.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionRateLimited,
		ClientID: requestcontext.ClientID(ctx),
		Outcome:  string(class),
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to record rate limit audit event",
			"class", class,
			"error", err,
		)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
