// Package dispatch routes integration events to the first registered handler
// that accepts them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"tokenvault/internal/events/models"
)

// Handler is one event handler. Matches must be a pure function of the
// event's type tag. Handle reports success; it must not panic on business
// failures.
type Handler interface {
	Name() string
	Matches(event models.IntegrationEvent) bool
	Handle(ctx context.Context, event models.IntegrationEvent) bool
}

// TypeClaimer is implemented by handlers that can declare the event types
// they match. The registry uses it to detect shadowed handlers at startup.
type TypeClaimer interface {
	Claims() []models.EventType
}

var (
	ErrRegistrySealed = errors.New("handler registry is sealed")
	ErrShadowedType   = errors.New("event type already claimed by an earlier handler")
	ErrNilHandler     = errors.New("handler is nil")
)

// Registry is the ordered, append-only list of handlers. It is populated at
// startup and read-only once sealed.
type Registry struct {
	handlers       []Handler
	claimedBy      map[models.EventType]string
	allowShadowing bool
	sealed         bool
}

type RegistryOption func(r *Registry)

// AllowShadowing disables the startup check for handlers claiming a type
// an earlier handler already claims. The later handler is then unreachable
// for that type.
func AllowShadowing() RegistryOption {
	return func(r *Registry) {
		r.allowShadowing = true
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{claimedBy: make(map[models.EventType]string)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends h after every handler registered so far.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if r.sealed {
		return fmt.Errorf("register %s: %w", h.Name(), ErrRegistrySealed)
	}
	claimer, ok := h.(TypeClaimer)
	if ok && !r.allowShadowing {
		for _, t := range claimer.Claims() {
			if owner, taken := r.claimedBy[t]; taken {
				return fmt.Errorf("register %s for %q (claimed by %s): %w", h.Name(), t, owner, ErrShadowedType)
			}
		}
	}
	if ok {
		for _, t := range claimer.Claims() {
			if _, taken := r.claimedBy[t]; !taken {
				r.claimedBy[t] = h.Name()
			}
		}
	}
	r.handlers = append(r.handlers, h)
	return nil
}

// MustRegister registers each handler in order and panics on the first
// error. Intended for process wiring.
func (r *Registry) MustRegister(handlers ...Handler) *Registry {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	return r
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// All yields handlers in registration order.
func (r *Registry) All() iter.Seq[Handler] {
	return slices.Values(r.handlers)
}
