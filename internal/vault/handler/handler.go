package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tokenvault/internal/platform/metrics"
	"tokenvault/internal/platform/middleware"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the tokenization operations exposed over HTTP.
type Service interface {
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.CreateAccountResult, error)
	UpdateAccount(ctx context.Context, req *models.UpdateAccountRequest) (string, error)
	FindToken(ctx context.Context, accountNumber string, clientID id.ClientID) (string, error)
	DisableAccount(ctx context.Context, token string, clientID id.ClientID) error
	ResolveToken(ctx context.Context, token string, clientID id.ClientID) (*models.ResolvedAccount, error)
}

// Handler serves the vault endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	resolveGuard []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithResolveGuard adds middleware in front of token resolution only, the
// one endpoint that returns clear account numbers.
func WithResolveGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.resolveGuard = append(h.resolveGuard, mw)
	}
}

// New creates a new vault Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the vault routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(vr chi.Router) {
		vr.Use(middleware.Recovery(h.logger))
		vr.Use(middleware.RequestID)
		vr.Use(middleware.RequestTime)
		vr.Use(middleware.Logger(h.logger))
		vr.Use(middleware.Timeout(30 * time.Second))
		vr.Use(middleware.LatencyMiddleware(h.metrics))
		vr.Use(middleware.RequireClientID(h.logger))

		vr.With(middleware.ContentTypeJSON).Post("/v1/accounts", h.handleCreateAccount)
		vr.With(middleware.ContentTypeJSON).Put("/v1/accounts/{token}", h.handleUpdateAccount)
		vr.With(middleware.ContentTypeJSON).Post("/v1/tokens/search", h.handleFindToken)
		vr.With(h.resolveGuard...).Get("/v1/accounts/{token}", h.handleResolveToken)
		vr.Delete("/v1/accounts/{token}", h.handleDisableAccount)
	})
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CreateAccount(ctx, req.ToModel(requestcontext.ClientID(ctx)))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if result.NewAccountCreated {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, CreateAccountResponse{
		AccountID:         result.AccountID.String(),
		Token:             result.Token,
		NewAccountCreated: result.NewAccountCreated,
	})
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.UpdateAccount(ctx, req.ToModel(chi.URLParam(r, "token"), requestcontext.ClientID(ctx)))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) handleFindToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req FindTokenRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rejectBody(ctx, err)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.FindToken(ctx, req.AccountNumber, requestcontext.ClientID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) handleResolveToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resolved, err := h.service.ResolveToken(ctx, chi.URLParam(r, "token"), requestcontext.ClientID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResolved(resolved))
}

func (h *Handler) handleDisableAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DisableAccount(ctx, chi.URLParam(r, "token"), requestcontext.ClientID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectBody(ctx context.Context, err error) {
	if dErrors.HasCode(err, dErrors.CodeBadRequest) || dErrors.HasCode(err, dErrors.CodeValidation) {
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	}
}
