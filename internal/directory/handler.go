package directory

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tokenvault/internal/platform/middleware"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/platform/sentinel"
	"tokenvault/pkg/requestcontext"
)

// Handler exposes the tenant's directory read-only.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type EntryResponse struct {
	AccountID    string    `json:"account_id"`
	Token        string    `json:"token"`
	Masked       string    `json:"masked"`
	CardBinID    int       `json:"card_bin_id"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// Register mounts the directory routes under /v1/directory.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/directory", func(dr chi.Router) {
		dr.Use(middleware.Recovery(h.logger))
		dr.Use(middleware.RequestID)
		dr.Use(middleware.Logger(h.logger))
		dr.Use(middleware.RequireClientID(h.logger))
		dr.Get("/", h.handleList)
		dr.Get("/{accountID}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.store.List(ctx, requestcontext.ClientID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list directory", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list directory"))
		return
	}
	resp := ListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.store.Get(ctx, requestcontext.ClientID(ctx), accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "directory entry not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to read directory entry", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read directory entry"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(entry))
}

func toResponse(e *Entry) EntryResponse {
	return EntryResponse{
		AccountID:    e.AccountID.String(),
		Token:        e.Token,
		Masked:       e.Masked,
		CardBinID:    int(e.CardBinID),
		RegisteredAt: e.RegisteredAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
