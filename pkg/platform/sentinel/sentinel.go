package sentinel

import "errors"

// Infrastructure facts returned by stores and adapters, optionally wrapped.
// Services translate them into domain errors; handlers never see them directly.
//
//   - ErrNotFound: the entity does not exist
//   - ErrAlreadyExists: an entity with the same key was already written
//   - ErrConflict: a concurrent writer won and retries are exhausted
//   - ErrInvalidState: a write would break a stored invariant
//   - ErrUnavailable: the backend cannot be reached right now
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrUnavailable   = errors.New("unavailable")
)
