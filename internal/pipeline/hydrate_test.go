package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/domain"
)

func seedEntry(t *testing.T, s *memStore, id string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), &domain.CacheEntry{
		ID:        id,
		Blob:      []byte("persisted-" + id),
		MIMEType:  "image/png",
		CreatedAt: time.Now().UTC(),
	}))
}

func TestHydrateRestoresHandles(t *testing.T) {
	artifacts := newMemStore()
	for _, id := range []string{"a", "b", "c"} {
		seedEntry(t, artifacts, id)
	}
	p, _ := newTestPipeline(t, &stubGenerator{}, artifacts, 2)

	created, err := p.Hydrate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, created)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, StateCached, p.State(id))
		handle, ok := p.Handle(id)
		require.True(t, ok)
		assert.Equal(t, "image/png", handle.MIMEType)
	}
}

func TestHydrateIsIdempotent(t *testing.T) {
	artifacts := newMemStore()
	seedEntry(t, artifacts, "a")
	seedEntry(t, artifacts, "b")
	p, _ := newTestPipeline(t, &stubGenerator{}, artifacts, 2)

	first, err := p.Hydrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first)

	second, err := p.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second, "second hydration must create no handles")
}

func TestHydrateSkipsHandlesFromLiveGeneration(t *testing.T) {
	artifacts := newMemStore()
	p, sched := newTestPipeline(t, &stubGenerator{}, artifacts, 2)

	// Two ids generated live while startup is still running; their entries
	// are in the store and their handles already in memory.
	require.True(t, p.Enqueue(mustRequest(t, "live1")))
	require.True(t, p.Enqueue(mustRequest(t, "live2")))
	sched.runAll()
	require.Equal(t, StateCached, p.State("live1"))
	require.Equal(t, StateCached, p.State("live2"))

	// A third id only exists in the durable store.
	seedEntry(t, artifacts, "cold")

	created, err := p.Hydrate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, created, "only the id without a handle is hydrated")
	assert.Equal(t, StateCached, p.State("cold"))
}
