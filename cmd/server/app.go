package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the pgx stdlib driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkrell/taskhive-api/internal/config"
	"github.com/mkrell/taskhive-api/internal/dispatch"
	"github.com/mkrell/taskhive-api/internal/lock"
	"github.com/mkrell/taskhive-api/internal/notify"
	"github.com/mkrell/taskhive-api/internal/platform/postgres"
	"github.com/mkrell/taskhive-api/internal/platform/redis"
	"github.com/mkrell/taskhive-api/internal/ratelimit"
	"github.com/mkrell/taskhive-api/internal/recurring"
)

// application holds the wired components shared by the HTTP surface and
// the local scheduler.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	kv         *redis.Client
	locks      *lock.Manager
	limiter    *ratelimit.Limiter
	dispatcher *dispatch.Dispatcher
	generator  *recurring.Generator
}

// newApplication connects the external collaborators (postgres, the
// remote store) and builds the coordination components on top of them.
//
// The remote store is mandatory: the jobs' mutual exclusion and the shared
// rate limits only work through it. Local development against the
// in-process store goes through the test binaries, never through a
// production-shaped configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	kv, err := redis.New(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = kv.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	locks := lock.NewManager(kv, logger)
	limiter := ratelimit.New(kv, logger)
	taskStore := postgres.NewPostgresTaskStore(db)

	// TODO(transports): swap in the provider-backed web-push/email sender
	// once the notification transport service is deployed.
	sender := notify.NewLoggingSender(logger)

	dispatchCfg := dispatch.DefaultConfig()
	dispatchCfg.LockTTL = cfg.Cron.LockTTL
	dispatcher := dispatch.New(locks, taskStore, sender, dispatchCfg, logger)

	recurringCfg := recurring.DefaultConfig()
	recurringCfg.LockTTL = cfg.Cron.LockTTL
	generator := recurring.New(locks, taskStore, recurringCfg, logger)

	return &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		kv:         kv,
		locks:      locks,
		limiter:    limiter,
		dispatcher: dispatcher,
		generator:  generator,
	}, nil
}

// cleanup releases the application's external connections.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
	if err := app.kv.Close(); err != nil {
		app.logger.Error("failed to close remote store client", "error", err)
	}
}
