package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-api/internal/api/shared"
	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/pipeline"
	"github.com/atelierhq/atelier-api/internal/platform/logger"
	"github.com/atelierhq/atelier-api/internal/store"
)

// ArtifactHandler serves the collaborator-facing surface of the pipeline.
type ArtifactHandler struct {
	pipeline  *pipeline.Pipeline
	artifacts store.ArtifactStore
	logger    *slog.Logger
}

// NewArtifactHandler creates a new ArtifactHandler with the given dependencies.
func NewArtifactHandler(p *pipeline.Pipeline, artifacts store.ArtifactStore, logger *slog.Logger) *ArtifactHandler {
	if p == nil {
		panic("pipeline cannot be nil")
	}

	if artifacts == nil {
		panic("artifact store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ArtifactHandler{
		pipeline:  p,
		artifacts: artifacts,
		logger:    logger.With(slog.String("component", "artifact_handler")),
	}
}

// Submit handles POST /api/v1/artifacts. Submission is fire-and-forget:
// the pipeline generates in the background and the caller polls Status.
// An id that is already cached or already in flight is rejected with 409.
func (h *ArtifactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitArtifactRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	genReq, err := domain.NewGenerationRequest(req.ID, req.Prompt, domain.Style(req.Style))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if !h.pipeline.Enqueue(genReq) {
		shared.RespondWithJSON(w, r, http.StatusConflict, SubmitArtifactResponse{
			ID:    req.ID,
			State: string(h.pipeline.State(req.ID)),
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitArtifactResponse{
		ID:    req.ID,
		State: string(pipeline.StatePending),
	})
}

// Status handles GET /api/v1/artifacts/{id}. The read is non-blocking:
// it reports the pipeline's current in-memory view of the id.
func (h *ArtifactHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Artifact ID required")
		return
	}

	resp := ArtifactStatusResponse{
		ID:    id,
		State: string(h.pipeline.State(id)),
	}
	if handle, ok := h.pipeline.Handle(id); ok {
		resp.URL = handle.URL
		resp.MIMEType = handle.MIMEType
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Content handles GET /api/v1/artifacts/{id}/content, streaming the cached
// blob with its stored MIME type.
func (h *ArtifactHandler) Content(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Artifact ID required")
		return
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger)

	entry, err := h.artifacts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Artifact not found")
			return
		}
		log.Error("failed to read artifact",
			slog.String("artifact_id", id),
			slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to read artifact")
		return
	}

	w.Header().Set("Content-Type", entry.MIMEType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(entry.Blob); err != nil {
		log.Error("failed to write artifact body",
			slog.String("artifact_id", id),
			slog.String("error", err.Error()))
	}
}

// Purge handles DELETE /api/v1/artifacts, clearing the durable store and
// every in-memory handle.
func (h *ArtifactHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Purge(r.Context()); err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to purge pipeline", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to purge artifacts")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/artifacts/stats.
func (h *ArtifactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.pipeline.Stats()
	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse(s))
}
