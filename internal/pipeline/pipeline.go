package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/generation"
	"github.com/atelierhq/atelier-api/internal/store"
)

// Config holds configuration for the pipeline dispatcher.
type Config struct {
	// BatchSize bounds how many generation calls run concurrently within
	// one batch.
	BatchSize int

	// BatchDelay is the cooperative pause between batches, keeping the
	// pipeline under external rate limits even when calls succeed quickly.
	BatchDelay time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:  2,
		BatchDelay: 2 * time.Second,
	}
}

// ArtifactState describes what the pipeline currently knows about an id.
type ArtifactState string

// Possible artifact states
const (
	StateUnknown ArtifactState = "unknown"
	StatePending ArtifactState = "pending"
	StateErrored ArtifactState = "errored"
	StateCached  ArtifactState = "cached"
)

// Stats is a point-in-time snapshot of pipeline occupancy.
type Stats struct {
	Pending int `json:"pending"`
	Loading int `json:"loading"`
	Errored int `json:"errored"`
	Cached  int `json:"cached"`
}

// batchResult pairs one request with the outcome of its generation call.
type batchResult struct {
	req domain.GenerationRequest
	img *generation.Image
	err error
}

// Pipeline owns all queue, loading, errored, and handle state. Collaborators
// submit work through Enqueue and read results through the non-blocking
// lookup methods; they never wait on the pipeline directly.
type Pipeline struct {
	generator generation.Generator
	artifacts store.ArtifactStore
	cfg       Config
	logger    *slog.Logger

	// schedule defers fn by d. Production uses time.AfterFunc; tests swap
	// in a manual scheduler to step the dispatcher deterministically.
	schedule func(d time.Duration, fn func())

	mu          sync.Mutex
	pending     []domain.GenerationRequest
	loading     map[string]struct{}
	errored     map[string]struct{}
	handles     map[string]domain.ArtifactHandle
	dispatching bool
	stopped     bool
}

// New creates a Pipeline. generator should already carry retry behavior
// (see generation.RetryingGenerator); the pipeline itself never retries a
// terminal failure.
func New(generator generation.Generator, artifacts store.ArtifactStore, cfg Config, logger *slog.Logger) *Pipeline {
	if generator == nil {
		panic("generator cannot be nil")
	}

	if artifacts == nil {
		panic("artifact store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}

	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultConfig().BatchDelay
	}

	p := &Pipeline{
		generator: generator,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "pipeline")),
		loading:   make(map[string]struct{}),
		errored:   make(map[string]struct{}),
		handles:   make(map[string]domain.ArtifactHandle),
	}
	p.schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

	return p
}

// Enqueue submits a generation request. It reports false, leaving all state
// untouched, when the id is already cached or already in flight. Accepting
// the request marks the id as loading immediately, so a second Enqueue for
// the same id is rejected even before a batch picks it up. An errored id is
// accepted again: a fresh request is the only way out of the errored state.
func (p *Pipeline) Enqueue(req domain.GenerationRequest) bool {
	p.mu.Lock()

	if _, ok := p.handles[req.ID]; ok {
		p.mu.Unlock()
		return false
	}

	if _, ok := p.loading[req.ID]; ok {
		p.mu.Unlock()
		return false
	}

	delete(p.errored, req.ID)
	p.pending = append(p.pending, req)
	p.loading[req.ID] = struct{}{}
	queued := len(p.pending)
	p.mu.Unlock()

	p.logger.Debug("request enqueued",
		slog.String("artifact_id", req.ID),
		slog.String("style", string(req.Style)),
		slog.Int("queue_len", queued))

	p.schedule(0, func() { p.Tick(context.Background()) })
	return true
}

// Tick drains one batch. It is single-flight: a call while a batch is
// executing is a no-op, so batches never interleave. After the join barrier
// the batch's results are applied in request order, and another tick is
// scheduled after BatchDelay while work remains.
func (p *Pipeline) Tick(ctx context.Context) {
	p.mu.Lock()
	if p.dispatching || p.stopped || len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}

	p.dispatching = true
	n := p.cfg.BatchSize
	if n > len(p.pending) {
		n = len(p.pending)
	}
	batch := make([]domain.GenerationRequest, n)
	copy(batch, p.pending[:n])
	p.pending = p.pending[n:]
	p.mu.Unlock()

	p.logger.Info("dispatching batch", slog.Int("batch_size", len(batch)))

	results := make([]batchResult, len(batch))
	var wg sync.WaitGroup
	for i, req := range batch {
		wg.Add(1)
		go func(i int, req domain.GenerationRequest) {
			defer wg.Done()
			img, err := p.generator.Generate(ctx, req.Prompt, req.Style)
			results[i] = batchResult{req: req, img: img, err: err}
		}(i, req)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			p.fail(res.req, res.err)
			continue
		}
		p.complete(ctx, res.req, res.img)
	}

	p.mu.Lock()
	p.dispatching = false
	more := len(p.pending) > 0 && !p.stopped
	p.mu.Unlock()

	if more {
		p.schedule(p.cfg.BatchDelay, func() { p.Tick(ctx) })
	}
}

// complete persists a successful result and moves the id to cached. A write
// failure from a degraded store is logged but does not discard the result:
// the in-memory handle still serves the blob's metadata, and the entry will
// be regenerated after the next restart at worst.
func (p *Pipeline) complete(ctx context.Context, req domain.GenerationRequest, img *generation.Image) {
	entry := &domain.CacheEntry{
		ID:        req.ID,
		Blob:      img.Data,
		MIMEType:  img.MIMEType,
		CreatedAt: time.Now().UTC(),
	}

	if err := p.artifacts.Put(ctx, entry); err != nil {
		p.logger.Error("failed to persist artifact",
			slog.String("artifact_id", req.ID),
			slog.String("error", err.Error()))
	}

	p.mu.Lock()
	delete(p.loading, req.ID)
	delete(p.errored, req.ID)
	p.handles[req.ID] = domain.NewArtifactHandle(entry)
	p.mu.Unlock()

	p.logger.Info("artifact cached",
		slog.String("artifact_id", req.ID),
		slog.String("mime_type", entry.MIMEType),
		slog.Int("bytes", len(entry.Blob)))
}

// fail records a terminal generation failure. The error never propagates to
// collaborators; the only observable effect is IsErrored turning true.
func (p *Pipeline) fail(req domain.GenerationRequest, err error) {
	p.mu.Lock()
	delete(p.loading, req.ID)
	p.errored[req.ID] = struct{}{}
	p.mu.Unlock()

	p.logger.Warn("generation failed",
		slog.String("artifact_id", req.ID),
		slog.String("style", string(req.Style)),
		slog.String("error", err.Error()))
}

// Stop prevents further dispatching. Requests already in flight finish
// their current batch but schedule nothing new; pending requests are lost,
// matching the restart semantics (they were never cached or errored).
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.logger.Info("pipeline stopped")
}

// IsLoading reports whether id has an accepted request that has not yet
// reached a terminal state.
func (p *Pipeline) IsLoading(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.loading[id]
	return ok
}

// IsErrored reports whether the last request for id failed terminally.
func (p *Pipeline) IsErrored(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.errored[id]
	return ok
}

// Handle returns the artifact handle for a cached id.
func (p *Pipeline) Handle(id string) (domain.ArtifactHandle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.handles[id]
	return h, ok
}

// State classifies id for the status API.
func (p *Pipeline) State(id string) ArtifactState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.handles[id]; ok {
		return StateCached
	}
	if _, ok := p.loading[id]; ok {
		return StatePending
	}
	if _, ok := p.errored[id]; ok {
		return StateErrored
	}
	return StateUnknown
}

// Stats returns a snapshot of pipeline occupancy.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Pending: len(p.pending),
		Loading: len(p.loading),
		Errored: len(p.errored),
		Cached:  len(p.handles),
	}
}

// Purge clears the durable store and every in-memory handle, and resets the
// errored set so any id can be requested fresh. Requests currently in
// flight complete normally and re-cache their own results.
func (p *Pipeline) Purge(ctx context.Context) error {
	if err := p.artifacts.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear artifact store: %w", err)
	}

	p.mu.Lock()
	p.handles = make(map[string]domain.ArtifactHandle)
	p.errored = make(map[string]struct{})
	p.mu.Unlock()

	p.logger.Info("pipeline purged")
	return nil
}
