package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mkrell/taskhive-api/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")
)

// TaskStore defines the persistence operations the background jobs need.
// The wider CRUD product owns the tasks schema; this interface only reads
// scheduling data and materializes recurring occurrences.
//
// Version: 1.0
type TaskStore interface {
	// ListNotificationProfiles returns, for every user with notifications
	// enabled, their preferences together with their open (incomplete)
	// tasks that carry a due time. Users without eligible tasks are
	// omitted.
	ListNotificationProfiles(ctx context.Context) ([]domain.NotificationProfile, error)

	// ListElapsedRecurring returns completed or past-due recurring tasks
	// whose next occurrence has not been materialized yet, with due times
	// at or before the cutoff.
	ListElapsedRecurring(ctx context.Context, cutoff time.Time) ([]domain.Task, error)

	// CreateOccurrence inserts the next instance of a recurring task,
	// copying the template's fields with the new due time, and marks the
	// source task as regenerated so it is not returned again by
	// ListElapsedRecurring. Returns the ID of the new instance.
	CreateOccurrence(ctx context.Context, source domain.Task, dueAt time.Time) (uuid.UUID, error)
}
