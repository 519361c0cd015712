// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between the external
// scheduler (and internal monitoring) and the background job layer,
// translating HTTP concerns to job invocations.
package api

import (
	"context"
	"net/http"

	"github.com/mkrell/taskhive-api/internal/api/shared"
	"github.com/mkrell/taskhive-api/internal/dispatch"
	"github.com/mkrell/taskhive-api/internal/platform/logger"
	"github.com/mkrell/taskhive-api/internal/recurring"
)

// NotificationJobResponse is the trigger endpoint's success body. The
// summary is present on executed runs and omitted on skipped ones, so
// external monitoring can distinguish "nothing to do" from "something
// broke".
type NotificationJobResponse struct {
	Success bool             `json:"success"`
	Skipped bool             `json:"skipped,omitempty"`
	Message string           `json:"message,omitempty"`
	Summary *dispatch.Result `json:"summary,omitempty"`
}

// RecurringJobResponse is the recurring-generation trigger's success body.
type RecurringJobResponse struct {
	Success bool              `json:"success"`
	Skipped bool              `json:"skipped,omitempty"`
	Message string            `json:"message,omitempty"`
	Summary *recurring.Result `json:"summary,omitempty"`
}

// jobFailureResponse is the body of a 500 from either trigger.
type jobFailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NotificationRunner runs one notification dispatch. A nil result with a
// nil error means the run was skipped because another instance holds the
// job lock.
type NotificationRunner interface {
	Run(ctx context.Context) (*dispatch.Result, error)
}

// RecurringRunner runs one recurring-generation pass, with the same
// nil-result skip convention.
type RecurringRunner interface {
	Run(ctx context.Context) (*recurring.Result, error)
}

// JobsHandler exposes the scheduled jobs as HTTP trigger endpoints for the
// external scheduler.
type JobsHandler struct {
	dispatcher NotificationRunner
	generator  RecurringRunner
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(dispatcher NotificationRunner, generator RecurringRunner) *JobsHandler {
	return &JobsHandler{
		dispatcher: dispatcher,
		generator:  generator,
	}
}

// TriggerNotifications handles POST /api/jobs/notifications. Multiple
// redundant scheduler instances may fire simultaneously; the dispatcher's
// lock guarantees at most one executes, and the losers get a successful
// "skipped" response.
func (h *JobsHandler) TriggerNotifications(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	// The run should finish even if the scheduler hangs up early.
	result, err := h.dispatcher.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Error("notification job failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusInternalServerError, jobFailureResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, NotificationJobResponse{
			Success: true,
			Skipped: true,
			Message: "already running on another instance",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NotificationJobResponse{
		Success: true,
		Summary: result,
	})
}

// TriggerRecurring handles POST /api/jobs/recurring.
func (h *JobsHandler) TriggerRecurring(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	result, err := h.generator.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		log.Error("recurring generation job failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusInternalServerError, jobFailureResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if result == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, RecurringJobResponse{
			Success: true,
			Skipped: true,
			Message: "already running on another instance",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RecurringJobResponse{
		Success: true,
		Summary: result,
	})
}
