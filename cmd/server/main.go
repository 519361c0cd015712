// Package main implements the entry point for the taskhive API's
// coordination service: the HTTP trigger surface for the scheduled
// background jobs and the rate-limited routing in front of it.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/mkrell/taskhive-api/internal/config"
	"github.com/mkrell/taskhive-api/internal/platform/logger"
)

// main loads configuration, wires the application components and runs the
// HTTP server until it is signaled to stop.
func main() {
	ctx := context.Background()

	app, err := initializeApp(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up application components.
// Returns the wired application and any initialization error.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to wire application: %w", err)
	}

	return app, nil
}
