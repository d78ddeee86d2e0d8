// Package main implements the entry point for the atelier API server,
// which generates illustration artifacts from text prompts and serves
// them from a durable cache.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/platform/logger"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.serve(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and wires up application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName,
		"batch_size", cfg.Pipeline.BatchSize)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	return app, nil
}
