package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrRecurrenceInvalid is returned when a task carries an unknown
	// recurrence rule.
	ErrRecurrenceInvalid = errors.New("task recurrence rule is invalid")
)

// RecurrenceRule describes how a completed or elapsed task repeats.
type RecurrenceRule string

const (
	RecurrenceNone    RecurrenceRule = ""
	RecurrenceDaily   RecurrenceRule = "daily"
	RecurrenceWeekly  RecurrenceRule = "weekly"
	RecurrenceMonthly RecurrenceRule = "monthly"
)

// Task is the snapshot of a task as the coordination layer sees it.
// The wider product owns the full task model (categories, tags, calendar
// links); the background jobs only need identity, scheduling fields and
// completion state.
type Task struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Title      string         `json:"title"`
	DueAt      *time.Time     `json:"due_at,omitempty"`
	Completed  bool           `json:"completed"`
	Recurrence RecurrenceRule `json:"recurrence,omitempty"`
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if t.Title == "" {
		return ErrTaskTitleEmpty
	}
	switch t.Recurrence {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return nil
	default:
		return ErrRecurrenceInvalid
	}
}

// NextOccurrence returns the due time of the instance that follows the
// given one under the task's recurrence rule. The boolean is false for
// non-recurring tasks.
func (t *Task) NextOccurrence(after time.Time) (time.Time, bool) {
	switch t.Recurrence {
	case RecurrenceDaily:
		return after.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return after.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return after.AddDate(0, 1, 0), true
	default:
		return time.Time{}, false
	}
}
