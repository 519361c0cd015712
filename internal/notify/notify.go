// Package notify defines the downstream send interfaces the dispatcher
// fans out through. The transports themselves (web push, email providers)
// live outside this service; implementations are injected at startup.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkrell/taskhive-api/internal/domain"
)

// Kind identifies a notification class.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindOverdue  Kind = "overdue"
	KindDueToday Kind = "due_today"
)

// Sender delivers one notification per call. The boolean reports whether a
// send actually occurred: false without an error means the transport
// deliberately did not send (for example a stale push subscription), which
// the dispatcher counts separately from a transport failure.
//
// Implementations own their own timeouts; the dispatcher imposes none.
type Sender interface {
	// SendReminder notifies the user that a task is due in roughly
	// minutesBefore minutes.
	SendReminder(ctx context.Context, userID uuid.UUID, task domain.Task, minutesBefore int) (bool, error)

	// SendOverdue notifies the user about a task whose due time has passed.
	SendOverdue(ctx context.Context, userID uuid.UUID, task domain.Task) (bool, error)

	// SendDueToday notifies the user about a task due later today.
	SendDueToday(ctx context.Context, userID uuid.UUID, task domain.Task) (bool, error)
}
