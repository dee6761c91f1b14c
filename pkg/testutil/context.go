package testutil

import (
	"net/http"
	"time"

	id "tokenvault/pkg/domain"
	"tokenvault/pkg/requestcontext"
)

// ClientIDHeader mirrors the tenant header read by the HTTP middleware.
const ClientIDHeader = "X-Client-ID"

// WithClientHeader sets the tenant header the way a caller would.
func WithClientHeader(req *http.Request, clientID id.ClientID) *http.Request {
	req.Header.Set(ClientIDHeader, clientID.String())
	return req
}

// WithClientID puts the tenant straight into the request context, for
// handlers exercised without the middleware chain.
func WithClientID(req *http.Request, clientID id.ClientID) *http.Request {
	return req.WithContext(requestcontext.WithClientID(req.Context(), clientID))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
