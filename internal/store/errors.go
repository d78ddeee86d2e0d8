package store

import "errors"

// Common errors returned by store implementations
var (
	// ErrArtifactNotFound is returned when no cache entry exists for an id.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being persisted.
	ErrInvalidEntity = errors.New("invalid entity")
)
