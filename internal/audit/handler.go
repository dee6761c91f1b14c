// Package audit serves the tenant's own vault access trail.
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tokenvault/internal/platform/middleware"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	platformaudit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Lister is satisfied by the audit publisher.
type Lister interface {
	List(ctx context.Context, clientID id.ClientID, limit int) ([]platformaudit.Event, error)
}

type Handler struct {
	events Lister
	logger *slog.Logger
}

func NewHandler(events Lister, logger *slog.Logger) *Handler {
	return &Handler{events: events, logger: logger}
}

type EventResponse struct {
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	AccountID string    `json:"account_id,omitempty"`
	Outcome   string    `json:"outcome"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ListResponse struct {
	Events []EventResponse `json:"events"`
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/audit-events", func(ar chi.Router) {
		ar.Use(middleware.Recovery(h.logger))
		ar.Use(middleware.RequestID)
		ar.Use(middleware.Logger(h.logger))
		ar.Use(middleware.RequireClientID(h.logger))
		ar.Get("/", h.handleList)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.List(ctx, requestcontext.ClientID(ctx), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	resp := ListResponse{Events: make([]EventResponse, 0, len(events))}
	for _, e := range events {
		er := EventResponse{
			Action:    string(e.Action),
			Category:  string(e.Action.Category()),
			Outcome:   e.Outcome,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		}
		if !e.AccountID.IsNil() {
			er.AccountID = e.AccountID.String()
		}
		resp.Events = append(resp.Events, er)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}
