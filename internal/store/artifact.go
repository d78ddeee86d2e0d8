package store

import (
	"context"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// ArtifactStore is the durable key→blob cache for generated artifacts.
// Implementations own the blob bytes exclusively; callers keep only
// domain.ArtifactHandle lookup keys.
type ArtifactStore interface {
	// Put persists an entry, replacing any previous blob for the same id.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// Get returns the entry for id, or ErrArtifactNotFound on a miss.
	Get(ctx context.Context, id string) (*domain.CacheEntry, error)

	// GetAll returns every persisted entry, used to rehydrate in-memory
	// handles at startup.
	GetAll(ctx context.Context) ([]*domain.CacheEntry, error)

	// Clear removes every persisted entry.
	Clear(ctx context.Context) error
}
