// Package dispatch implements the scheduled notification job: a
// lock-guarded run that builds the notification candidates for the current
// tick and fans their sends out concurrently, aggregating per-item
// outcomes without letting one failure abort the batch.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkrell/taskhive-api/internal/lock"
	"github.com/mkrell/taskhive-api/internal/notify"
	"github.com/mkrell/taskhive-api/internal/store"
)

// LockName identifies the dispatcher's job lock in the shared store. Any
// number of redundant instances may be triggered per tick; only the one
// holding this lock runs the job body.
const LockName = "send-notifications"

// Config holds dispatcher tuning knobs.
type Config struct {
	// LockTTL bounds the job lock when the holder crashes mid-run.
	LockTTL time.Duration

	// MaxInFlight caps concurrent sends so a large candidate batch cannot
	// overwhelm the notification transport.
	MaxInFlight int

	// Now supplies the current time; tests inject a fixed clock.
	Now func() time.Time
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		LockTTL:     5 * time.Minute,
		MaxInFlight: 16,
		Now:         time.Now,
	}
}

// Result aggregates the outcome of one dispatch run. Produced fresh each
// run and returned to the trigger endpoint; this layer does not persist it.
type Result struct {
	UsersProcessed         int     `json:"usersProcessed"`
	NotificationsCollected int     `json:"notificationsCollected"`
	RemindersSent          int     `json:"remindersSent"`
	OverdueSent            int     `json:"overdueSent"`
	DueTodaySent           int     `json:"dueTodaySent"`
	SkippedSends           int     `json:"skippedSends"`
	Errors                 int     `json:"errors"`
	TotalSent              int     `json:"totalSent"`
	SuccessRate            float64 `json:"successRate"`
}

// Dispatcher runs the notification job under its distributed lock.
type Dispatcher struct {
	locks  *lock.Manager
	tasks  store.TaskStore
	sender notify.Sender
	cfg    Config
	logger *slog.Logger
}

// New creates a dispatcher.
func New(locks *lock.Manager, tasks store.TaskStore, sender notify.Sender, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultConfig().MaxInFlight
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		locks:  locks,
		tasks:  tasks,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes one dispatch invocation under the job lock.
//
// A nil result with a nil error means another instance already holds the
// lock and this invocation was skipped; callers report that as a
// successful, non-error outcome. A non-nil error is a fatal job failure
// that surfaced after the lock was released.
func (d *Dispatcher) Run(ctx context.Context) (*Result, error) {
	var result *Result

	ran, err := d.locks.WithLock(ctx, LockName, lock.Options{TTL: d.cfg.LockTTL}, func(ctx context.Context) error {
		r, err := d.run(ctx)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		d.logger.Info("dispatch skipped, another instance holds the lock", "lock", LockName)
		return nil, nil
	}
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context) (*Result, error) {
	started := d.cfg.Now()

	profiles, err := d.tasks.ListNotificationProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification profiles: %w", err)
	}

	candidates := BuildCandidates(started, profiles)
	outcomes := d.fanOut(ctx, candidates)
	result := aggregate(len(profiles), outcomes)

	d.logger.Info("dispatch run completed",
		"users", result.UsersProcessed,
		"collected", result.NotificationsCollected,
		"sent", result.TotalSent,
		"skipped_sends", result.SkippedSends,
		"errors", result.Errors,
		"duration", time.Since(started))

	return result, nil
}

// outcome records how one candidate's send settled.
type outcome struct {
	candidate Candidate
	sent      bool
	err       error
}

// fanOut issues every candidate's send concurrently, bounded by
// MaxInFlight, and waits for all of them to settle. Sends are independent:
// a failure is recorded in its own outcome and never short-circuits the
// rest of the batch.
func (d *Dispatcher) fanOut(ctx context.Context, candidates []Candidate) []outcome {
	outcomes := make([]outcome, len(candidates))

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxInFlight)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			sent, err := d.send(ctx, c)
			outcomes[i] = outcome{candidate: c, sent: sent, err: err}
			if err != nil {
				d.logger.Warn("notification send failed",
					"kind", c.Kind,
					"user_id", c.UserID,
					"task_id", c.Task.ID,
					"error", err)
			}
			return nil
		})
	}
	// Group functions never return errors; Wait only joins the batch.
	_ = g.Wait()

	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, c Candidate) (bool, error) {
	switch c.Kind {
	case notify.KindReminder:
		return d.sender.SendReminder(ctx, c.UserID, c.Task, c.MinutesBefore)
	case notify.KindOverdue:
		return d.sender.SendOverdue(ctx, c.UserID, c.Task)
	case notify.KindDueToday:
		return d.sender.SendDueToday(ctx, c.UserID, c.Task)
	default:
		return false, fmt.Errorf("unknown notification kind %q", c.Kind)
	}
}

func aggregate(users int, outcomes []outcome) *Result {
	result := &Result{
		UsersProcessed:         users,
		NotificationsCollected: len(outcomes),
	}

	for _, o := range outcomes {
		switch {
		case o.err != nil:
			result.Errors++
		case !o.sent:
			// Deliberate non-send, e.g. a stale push subscription.
			result.SkippedSends++
		default:
			result.TotalSent++
			switch o.candidate.Kind {
			case notify.KindReminder:
				result.RemindersSent++
			case notify.KindOverdue:
				result.OverdueSent++
			case notify.KindDueToday:
				result.DueTodaySent++
			}
		}
	}

	if result.NotificationsCollected == 0 {
		result.SuccessRate = 1
	} else {
		attempted := result.NotificationsCollected
		result.SuccessRate = float64(attempted-result.Errors) / float64(attempted)
	}

	return result
}
