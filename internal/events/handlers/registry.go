package handlers

import (
	"log/slog"

	"tokenvault/internal/directory"
	"tokenvault/internal/events/dispatch"
)

// NewRegistry registers the account handlers in their dispatch order.
func NewRegistry(store directory.Store, logger *slog.Logger, opts ...dispatch.RegistryOption) (*dispatch.Registry, error) {
	registry := dispatch.NewRegistry(opts...)
	for _, h := range []dispatch.Handler{
		NewAccountCreated(store, logger),
		NewAccountUpdated(store, logger),
		NewAccountDeleted(store, logger),
	} {
		if err := registry.Register(h); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
