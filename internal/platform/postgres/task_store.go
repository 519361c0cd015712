// Package postgres implements the store interfaces against the product's
// PostgreSQL database through the pgx stdlib driver. The wider CRUD
// application owns the schema; this adapter only touches the scheduling
// columns the background jobs need.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkrell/taskhive-api/internal/domain"
	"github.com/mkrell/taskhive-api/internal/platform/logger"
	"github.com/mkrell/taskhive-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// ListNotificationProfiles loads, per user with notifications enabled,
// their preferences and open tasks carrying a due time. Rows come back
// ordered by user so the profiles can be assembled in one pass.
func (s *PostgresTaskStore) ListNotificationProfiles(ctx context.Context) ([]domain.NotificationProfile, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT u.id,
		       p.push_enabled,
		       p.email_enabled,
		       p.reminder_lead_times,
		       COALESCE(p.timezone, ''),
		       t.id,
		       t.title,
		       t.due_at,
		       t.completed,
		       COALESCE(t.recurrence, '')
		FROM users u
		JOIN notification_preferences p ON p.user_id = u.id
		JOIN tasks t ON t.user_id = u.id
		WHERE p.push_enabled = TRUE
		  AND t.completed = FALSE
		  AND t.due_at IS NOT NULL
		ORDER BY u.id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query notification profiles", "error", err)
		return nil, fmt.Errorf("failed to query notification profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []domain.NotificationProfile
	var current *domain.NotificationProfile

	for rows.Next() {
		var (
			userID       uuid.UUID
			pushEnabled  bool
			emailEnabled bool
			leadTimes    []byte
			timezone     string
			task         domain.Task
			dueAt        sql.NullTime
			recurrence   string
		)
		if err := rows.Scan(
			&userID,
			&pushEnabled,
			&emailEnabled,
			&leadTimes,
			&timezone,
			&task.ID,
			&task.Title,
			&dueAt,
			&task.Completed,
			&recurrence,
		); err != nil {
			log.Error("failed to scan notification profile row", "error", err)
			return nil, fmt.Errorf("failed to scan notification profile row: %w", err)
		}

		task.UserID = userID
		task.Recurrence = domain.RecurrenceRule(recurrence)
		if dueAt.Valid {
			due := dueAt.Time.UTC()
			task.DueAt = &due
		}

		if current == nil || current.UserID != userID {
			if current != nil {
				profiles = append(profiles, *current)
			}
			current = &domain.NotificationProfile{
				UserID: userID,
				Preferences: domain.NotificationPreferences{
					UserID:            userID,
					PushEnabled:       pushEnabled,
					EmailEnabled:      emailEnabled,
					ReminderLeadTimes: parseLeadTimes(leadTimes),
					Timezone:          timezone,
				},
			}
		}
		current.Tasks = append(current.Tasks, task)
	}
	if current != nil {
		profiles = append(profiles, *current)
	}

	if err := rows.Err(); err != nil {
		log.Error("failed to iterate notification profile rows", "error", err)
		return nil, fmt.Errorf("failed to iterate notification profile rows: %w", err)
	}

	return profiles, nil
}

// ListElapsedRecurring returns recurring tasks whose due time is at or
// before the cutoff and whose next occurrence has not been materialized.
func (s *PostgresTaskStore) ListElapsedRecurring(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, user_id, title, due_at, completed, recurrence
		FROM tasks
		WHERE recurrence IN ('daily', 'weekly', 'monthly')
		  AND regenerated = FALSE
		  AND due_at IS NOT NULL
		  AND (completed = TRUE OR due_at <= $1)
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff.UTC())
	if err != nil {
		log.Error("failed to query elapsed recurring tasks", "error", err)
		return nil, fmt.Errorf("failed to query elapsed recurring tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.Task
	for rows.Next() {
		var (
			task       domain.Task
			dueAt      sql.NullTime
			recurrence string
		)
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &dueAt, &task.Completed, &recurrence); err != nil {
			log.Error("failed to scan recurring task row", "error", err)
			return nil, fmt.Errorf("failed to scan recurring task row: %w", err)
		}
		task.Recurrence = domain.RecurrenceRule(recurrence)
		if dueAt.Valid {
			due := dueAt.Time.UTC()
			task.DueAt = &due
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("failed to iterate recurring task rows", "error", err)
		return nil, fmt.Errorf("failed to iterate recurring task rows: %w", err)
	}

	return tasks, nil
}

// CreateOccurrence inserts the next instance of a recurring task and marks
// the source as regenerated, in one transaction-free statement pair kept
// idempotent by the regenerated flag.
func (s *PostgresTaskStore) CreateOccurrence(ctx context.Context, source domain.Task, dueAt time.Time) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	if err := source.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	newID := uuid.New()
	now := time.Now().UTC()

	insert := `
		INSERT INTO tasks (id, user_id, title, due_at, completed, recurrence, regenerated, created_at, updated_at)
		SELECT $1, user_id, title, $2, FALSE, recurrence, FALSE, $3, $3
		FROM tasks
		WHERE id = $4 AND regenerated = FALSE
	`

	result, err := s.db.ExecContext(ctx, insert, newID, dueAt.UTC(), now, source.ID)
	if err != nil {
		log.Error("failed to insert recurring occurrence",
			"source_task_id", source.ID,
			"error", err)
		return uuid.Nil, fmt.Errorf("failed to insert recurring occurrence: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Another run already materialized this occurrence.
		return uuid.Nil, store.ErrNotFound
	}

	mark := `UPDATE tasks SET regenerated = TRUE, updated_at = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, mark, now, source.ID); err != nil {
		log.Error("failed to mark source task as regenerated",
			"source_task_id", source.ID,
			"error", err)
		return uuid.Nil, fmt.Errorf("failed to mark source task as regenerated: %w", err)
	}

	return newID, nil
}
