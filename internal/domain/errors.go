package domain

import "errors"

// ErrNotFound is returned by stores when no todo carries the requested ID.
var ErrNotFound = errors.New("todo not found")

// ErrConcurrencyConflict indicates that the underlying storage rejected an
// update because a newer version of the entity is already persisted.
var ErrConcurrencyConflict = errors.New("concurrency conflict")
