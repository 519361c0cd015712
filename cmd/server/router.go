package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkrell/taskhive-api/internal/api"
	apiMiddleware "github.com/mkrell/taskhive-api/internal/api/middleware"
	"github.com/mkrell/taskhive-api/internal/ratelimit"
)

// setupRouter creates and configures the application router with all
// routes and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	generalPolicy := ratelimit.Override(ratelimit.General,
		app.config.RateLimit.GeneralLimit, app.config.RateLimit.GeneralWindow)
	jobsPolicy := ratelimit.Override(ratelimit.Push,
		app.config.RateLimit.JobsLimit, app.config.RateLimit.JobsWindow)

	generalLimit := apiMiddleware.NewRateLimitMiddleware(app.limiter, generalPolicy)
	jobsLimit := apiMiddleware.NewRateLimitMiddleware(app.limiter, jobsPolicy)
	jobAuth := apiMiddleware.NewJobAuthMiddleware(app.config.Cron.Secret)

	jobsHandler := api.NewJobsHandler(app.dispatcher, app.generator)
	rateLimitHandler := api.NewRateLimitHandler(app.limiter)

	r.Route("/api", func(r chi.Router) {
		// Scheduled job triggers: shared-secret auth, then the jobs
		// route-class budget.
		r.Group(func(r chi.Router) {
			r.Use(jobAuth.Authenticate)
			r.Use(jobsLimit.Handle)
			r.Get("/jobs/notifications", jobsHandler.TriggerNotifications)
			r.Post("/jobs/notifications", jobsHandler.TriggerNotifications)
			r.Get("/jobs/recurring", jobsHandler.TriggerRecurring)
			r.Post("/jobs/recurring", jobsHandler.TriggerRecurring)

			// Operator override for stuck counters.
			r.Delete("/ratelimit/{route}/{identifier}", rateLimitHandler.Reset)
		})

		// Introspection for clients and UI.
		r.Group(func(r chi.Router) {
			r.Use(generalLimit.Handle)
			r.Get("/ratelimit/{route}", rateLimitHandler.Status)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
