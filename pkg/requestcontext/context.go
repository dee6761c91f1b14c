// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets values; services and event handlers read them without
// importing net/http.
//
//	clientID := requestcontext.ClientID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "tokenvault/pkg/domain"
)

type (
	clientIDKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	eventIDKey     struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyClientID    = clientIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyEventID     = eventIDKey{}
)

// ClientID retrieves the tenant from the context. Returns 0 if not set.
func ClientID(ctx context.Context) id.ClientID {
	if clientID, ok := ctx.Value(ContextKeyClientID).(id.ClientID); ok {
		return clientID
	}
	return 0
}

// WithClientID injects the tenant into the context.
func WithClientID(ctx context.Context, clientID id.ClientID) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, clientID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// EventID retrieves the integration event being processed, if any.
func EventID(ctx context.Context) string {
	if eventID, ok := ctx.Value(ContextKeyEventID).(string); ok {
		return eventID
	}
	return ""
}

// WithEventID injects the integration event id into the context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, ContextKeyEventID, eventID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, consumers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
