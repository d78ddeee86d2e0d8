package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// Hydrate restores in-memory handles from the durable store, typically once
// at process start. An id that already has a handle (for example one a
// dispatcher batch produced while startup was still running) is left
// untouched, which makes Hydrate idempotent and safe to interleave with
// live generation. Returns the number of handles created.
func (p *Pipeline) Hydrate(ctx context.Context) (int, error) {
	entries, err := p.artifacts.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact store: %w", err)
	}

	created := 0
	p.mu.Lock()
	for _, entry := range entries {
		if _, ok := p.handles[entry.ID]; ok {
			continue
		}
		p.handles[entry.ID] = domain.NewArtifactHandle(entry)
		created++
	}
	p.mu.Unlock()

	p.logger.Info("hydrated artifact handles",
		slog.Int("persisted", len(entries)),
		slog.Int("created", created))

	return created, nil
}
