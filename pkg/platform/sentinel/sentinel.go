package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: no active record matches the lookup
//   - ErrConflict: a uniqueness constraint rejected the write (dedup key or token)
//   - ErrDisabled: the record exists but was disabled and cannot be mutated
//   - ErrAlreadyClaimed: an idempotency key is held or completed by another delivery
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrDisabled       = errors.New("disabled")
	ErrAlreadyClaimed = errors.New("already claimed")
	ErrUnavailable    = errors.New("unavailable")
)
