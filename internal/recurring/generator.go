// Package recurring implements the scheduled job that materializes the
// next occurrence of recurring tasks. It runs under its own distributed
// lock, fully independent of the notification dispatcher: the two jobs may
// run concurrently with each other, never concurrently with themselves.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkrell/taskhive-api/internal/lock"
	"github.com/mkrell/taskhive-api/internal/store"
)

// LockName identifies the generator's job lock in the shared store.
const LockName = "generate-recurring"

// Config holds generator tuning knobs.
type Config struct {
	// LockTTL bounds the job lock when the holder crashes mid-run.
	LockTTL time.Duration

	// Now supplies the current time; tests inject a fixed clock.
	Now func() time.Time
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		LockTTL: 5 * time.Minute,
		Now:     time.Now,
	}
}

// Result aggregates one generation run.
type Result struct {
	Examined  int `json:"examined"`
	Generated int `json:"generated"`
	Errors    int `json:"errors"`
}

// Generator materializes elapsed recurring tasks' next occurrences.
type Generator struct {
	locks  *lock.Manager
	tasks  store.TaskStore
	cfg    Config
	logger *slog.Logger
}

// New creates a generator.
func New(locks *lock.Manager, tasks store.TaskStore, cfg Config, logger *slog.Logger) *Generator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{locks: locks, tasks: tasks, cfg: cfg, logger: logger}
}

// Run executes one generation pass under the job lock. A nil result with a
// nil error means another instance already holds the lock.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	var result *Result

	ran, err := g.locks.WithLock(ctx, LockName, lock.Options{TTL: g.cfg.LockTTL}, func(ctx context.Context) error {
		r, err := g.run(ctx)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		g.logger.Info("recurring generation skipped, another instance holds the lock", "lock", LockName)
		return nil, nil
	}
	return result, nil
}

func (g *Generator) run(ctx context.Context) (*Result, error) {
	now := g.cfg.Now()

	elapsed, err := g.tasks.ListElapsedRecurring(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list elapsed recurring tasks: %w", err)
	}

	result := &Result{Examined: len(elapsed)}
	for _, task := range elapsed {
		if task.DueAt == nil {
			continue
		}

		// Catch up past the current time so a task that sat elapsed for
		// several periods yields one future occurrence, not a backlog.
		next, ok := task.NextOccurrence(*task.DueAt)
		if !ok {
			continue
		}
		for !next.After(now) {
			next, _ = task.NextOccurrence(next)
		}

		if _, err := g.tasks.CreateOccurrence(ctx, task, next); err != nil {
			// Per-task failures are isolated; the rest of the batch
			// still generates.
			result.Errors++
			g.logger.Warn("failed to materialize recurring occurrence",
				"task_id", task.ID,
				"user_id", task.UserID,
				"error", err)
			continue
		}
		result.Generated++
	}

	g.logger.Info("recurring generation completed",
		"examined", result.Examined,
		"generated", result.Generated,
		"errors", result.Errors)

	return result, nil
}
