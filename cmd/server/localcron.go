package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// startLocalScheduler optionally runs the scheduled jobs from an
// in-process cron loop instead of an external scheduler. It is meant for
// single-instance self-hosted deployments; hosted deployments leave
// cron.local_schedule empty and trigger the jobs over HTTP.
//
// Even locally the jobs still run under their distributed locks, so
// enabling both the loop and an external scheduler cannot double-run a
// tick.
//
// The returned function stops the loop, waiting for an in-flight run to
// finish.
func (app *application) startLocalScheduler(ctx context.Context) (stop func(), err error) {
	spec := app.config.Cron.LocalSchedule
	if spec == "" {
		return func() {}, nil
	}

	c := cron.New()

	_, err = c.AddFunc(spec, func() {
		if _, err := app.dispatcher.Run(ctx); err != nil {
			app.logger.Error("local notification run failed", "error", err)
		}
		if _, err := app.generator.Run(ctx); err != nil {
			app.logger.Error("local recurring run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron.local_schedule %q: %w", spec, err)
	}

	app.logger.Info("local job scheduler enabled", "schedule", spec)
	c.Start()

	return func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}, nil
}
