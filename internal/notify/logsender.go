package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkrell/taskhive-api/internal/domain"
)

// LoggingSender is a development stand-in for the real push/email
// transports: it logs each notification and reports it as sent. Production
// deployments inject the provider-backed implementation instead.
type LoggingSender struct {
	logger *slog.Logger
}

var _ Sender = (*LoggingSender)(nil)

// NewLoggingSender creates a sender that only logs.
func NewLoggingSender(logger *slog.Logger) *LoggingSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSender{logger: logger}
}

func (s *LoggingSender) SendReminder(ctx context.Context, userID uuid.UUID, task domain.Task, minutesBefore int) (bool, error) {
	s.logger.Info("notification (logged only)",
		"kind", KindReminder,
		"user_id", userID,
		"task_id", task.ID,
		"minutes_before", minutesBefore)
	return true, nil
}

func (s *LoggingSender) SendOverdue(ctx context.Context, userID uuid.UUID, task domain.Task) (bool, error) {
	s.logger.Info("notification (logged only)",
		"kind", KindOverdue,
		"user_id", userID,
		"task_id", task.ID)
	return true, nil
}

func (s *LoggingSender) SendDueToday(ctx context.Context, userID uuid.UUID, task domain.Task) (bool, error) {
	s.logger.Info("notification (logged only)",
		"kind", KindDueToday,
		"user_id", userID,
		"task_id", task.ID)
	return true, nil
}
