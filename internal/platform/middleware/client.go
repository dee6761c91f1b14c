package middleware

import (
	"log/slog"
	"net/http"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/platform/httputil"
	"tokenvault/pkg/requestcontext"
)

// ClientIDHeader names the tenant header. Callers are trusted to send their
// own client id; authentication happens in front of this service.
const ClientIDHeader = "X-Client-ID"

// RequireClientID parses the tenant header into the context or rejects the
// request with 400.
func RequireClientID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, err := id.ParseClientID(r.Header.Get(ClientIDHeader))
			if err != nil {
				logger.WarnContext(r.Context(), "rejected request without valid client id",
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			ctx := requestcontext.WithClientID(r.Context(), clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
