package dispatch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrell/taskhive-api/internal/domain"
	"github.com/mkrell/taskhive-api/internal/notify"
)

func taskDueAt(userID uuid.UUID, due time.Time) domain.Task {
	return domain.Task{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "write status report",
		DueAt:  &due,
	}
}

func profileWith(leads []int, tz string, tasks ...domain.Task) domain.NotificationProfile {
	userID := uuid.New()
	for i := range tasks {
		tasks[i].UserID = userID
	}
	return domain.NotificationProfile{
		UserID: userID,
		Preferences: domain.NotificationPreferences{
			UserID:            userID,
			PushEnabled:       true,
			ReminderLeadTimes: leads,
			Timezone:          tz,
		},
		Tasks: tasks,
	}
}

func kinds(candidates []Candidate) []notify.Kind {
	out := make([]notify.Kind, len(candidates))
	for i, c := range candidates {
		out[i] = c.Kind
	}
	return out
}

func TestTaskDueExactlyNowIsDueTodayNotOverdue(t *testing.T) {
	// 08:00 local so the due-today gate is open.
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	profile := profileWith(nil, "", taskDueAt(uuid.Nil, now))

	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	require.Len(t, candidates, 1)
	assert.Equal(t, notify.KindDueToday, candidates[0].Kind,
		"a task due exactly now is due today, not overdue")
}

func TestOverdueEmittedOnlyAtGateHour(t *testing.T) {
	due := time.Date(2025, 2, 27, 17, 0, 0, 0, time.UTC)

	// At 09:xx local the overdue push goes out.
	at9 := time.Date(2025, 3, 1, 9, 10, 0, 0, time.UTC)
	profile := profileWith(nil, "", taskDueAt(uuid.Nil, due))
	candidates := BuildCandidates(at9, []domain.NotificationProfile{profile})
	require.Len(t, candidates, 1)
	assert.Equal(t, notify.KindOverdue, candidates[0].Kind)

	// At any other hour the task stays silent until tomorrow's gate.
	at14 := time.Date(2025, 3, 1, 14, 10, 0, 0, time.UTC)
	candidates = BuildCandidates(at14, []domain.NotificationProfile{profile})
	assert.Empty(t, candidates)
}

func TestDueTodayRequiresDueWithinLocalDay(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 15, 0, 0, time.UTC)

	dueTonight := taskDueAt(uuid.Nil, time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC))
	dueTomorrow := taskDueAt(uuid.Nil, time.Date(2025, 3, 2, 0, 30, 0, 0, time.UTC))
	profile := profileWith(nil, "", dueTonight, dueTomorrow)

	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	require.Len(t, candidates, 1)
	assert.Equal(t, notify.KindDueToday, candidates[0].Kind)
	assert.Equal(t, dueTonight.ID, candidates[0].Task.ID)
}

func TestDueTodayHonorsUserTimezone(t *testing.T) {
	// 13:00 UTC is 08:00 in New York (EST is UTC-5 on this date).
	now := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	nyProfile := profileWith(nil, "America/New_York", taskDueAt(uuid.Nil, due))
	utcProfile := profileWith(nil, "", taskDueAt(uuid.Nil, due))

	candidates := BuildCandidates(now, []domain.NotificationProfile{nyProfile, utcProfile})

	require.Len(t, candidates, 1, "only the New York user is at their local gate hour")
	assert.Equal(t, nyProfile.UserID, candidates[0].UserID)
}

func TestReminderWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		minutesUntil int
		want         bool
	}{
		{"exactly at lead time", 60, true},
		{"just inside window", 46, true},
		{"at lower bound", 45, false},
		{"beyond lead time", 61, false},
		{"long before due", 120, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			due := now.Add(time.Duration(tc.minutesUntil) * time.Minute)
			profile := profileWith([]int{60}, "", taskDueAt(uuid.Nil, due))

			candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

			if !tc.want {
				assert.Empty(t, candidates)
				return
			}
			require.Len(t, candidates, 1)
			assert.Equal(t, notify.KindReminder, candidates[0].Kind)
			assert.Equal(t, 60, candidates[0].MinutesBefore)
		})
	}
}

func TestAtMostOneReminderPerTask(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// 25 minutes until due matches both the 30 and 35 minute lead times;
	// the first configured lead time wins.
	due := now.Add(25 * time.Minute)
	profile := profileWith([]int{30, 35}, "", taskDueAt(uuid.Nil, due))

	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	require.Equal(t, []notify.Kind{notify.KindReminder}, kinds(candidates))
	assert.Equal(t, 30, candidates[0].MinutesBefore)
}

func TestDefaultLeadTimeAppliesWhenUnconfigured(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(50 * time.Minute)
	profile := profileWith(nil, "", taskDueAt(uuid.Nil, due))

	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	require.Len(t, candidates, 1)
	assert.Equal(t, 60, candidates[0].MinutesBefore)
}

func TestPushDisabledProducesNoCandidates(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	profile := profileWith(nil, "", taskDueAt(uuid.Nil, now.Add(-time.Hour)))
	profile.Preferences.PushEnabled = false

	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	assert.Empty(t, candidates)
}

func TestCompletedAndUndatedTasksAreIgnored(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	done := taskDueAt(uuid.Nil, now.Add(-time.Hour))
	done.Completed = true
	undated := domain.Task{ID: uuid.New(), Title: "someday"}

	profile := profileWith(nil, "", done, undated)
	candidates := BuildCandidates(now, []domain.NotificationProfile{profile})

	assert.Empty(t, candidates)
}
