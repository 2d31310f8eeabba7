package domain

import "errors"

// ErrNotFound is returned when an id refers to a recipe that is not present,
// either in the store or in the catalog's currently loaded set.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrIndexOutOfRange is returned when a view index or ingredient index does not
// address an existing element. It usually means the caller holds stale UI state.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrStore is returned when the store rejects a write, e.g. an id collision on insert.
var ErrStore = errors.New("store error")

// ErrPersistence is returned when flushing to or reading from durable storage fails.
// The attempted mutation has not been applied.
var ErrPersistence = errors.New("persistence error")

// ErrInvalidState is returned when a session operation is not allowed in the
// session's current state (e.g. committing a session that is not creating).
var ErrInvalidState = errors.New("invalid session state")

// ErrValidation is returned when presentation input cannot be interpreted
// (e.g. an unknown sort mode name).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
