package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/atelierhq/atelier-api/internal/api"
	"github.com/atelierhq/atelier-api/internal/api/middleware"
	"github.com/atelierhq/atelier-api/internal/api/shared"
	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/generation"
	"github.com/atelierhq/atelier-api/internal/pipeline"
	"github.com/atelierhq/atelier-api/internal/platform/gemini"
	"github.com/atelierhq/atelier-api/internal/platform/postgres"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	db       *sql.DB
	pipeline *pipeline.Pipeline
	router   http.Handler
}

// newApplication wires every component together: database, generator,
// pipeline, and router. It also hydrates artifact handles from the durable
// store so previously generated artwork is served without new model calls.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	rawGenerator, err := gemini.NewGenerator(context.Background(), logger, cfg.LLM)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	generator := generation.NewRetryingGenerator(
		rawGenerator,
		cfg.LLM.MaxAttempts,
		time.Duration(cfg.LLM.BaseDelayMs)*time.Millisecond,
		logger,
	)

	artifacts := postgres.NewPostgresArtifactStore(db, logger)

	pipe := pipeline.New(generator, artifacts, pipeline.Config{
		BatchSize:  cfg.Pipeline.BatchSize,
		BatchDelay: time.Duration(cfg.Pipeline.BatchDelayMs) * time.Millisecond,
	}, logger)

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := pipe.Hydrate(hydrateCtx); err != nil {
		// A failed hydration degrades to an empty cache; the pipeline can
		// still generate fresh artifacts.
		logger.Warn("hydration failed, starting with empty handle map", "error", err)
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		pipeline: pipe,
	}
	app.router = app.buildRouter(artifacts)

	return app, nil
}

// buildRouter assembles the chi router with tracing on everything and
// bearer-token auth on the v1 API.
func (app *application) buildRouter(artifacts *postgres.PostgresArtifactStore) http.Handler {
	handler := api.NewArtifactHandler(app.pipeline, artifacts, app.logger)
	auth := middleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/artifacts", func(r chi.Router) {
			r.Post("/", handler.Submit)
			r.Delete("/", handler.Purge)
			r.Get("/stats", handler.Stats)
			r.Get("/{id}", handler.Status)
			r.Get("/{id}/content", handler.Content)
		})
	})

	return r
}

// cleanup releases application resources in reverse dependency order.
func (app *application) cleanup() {
	app.pipeline.Stop()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
