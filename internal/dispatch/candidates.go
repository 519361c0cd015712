package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkrell/taskhive-api/internal/domain"
	"github.com/mkrell/taskhive-api/internal/notify"
)

const (
	// OverdueHour is the user-local hour during which overdue pushes are
	// emitted. Together with the daily cadence this caps them at roughly
	// one per calendar day.
	OverdueHour = 9

	// DueTodayHour is the user-local hour during which due-today pushes
	// are emitted.
	DueTodayHour = 8

	// reminderSlack is the width of each reminder window in minutes. A
	// lead time of m fires while m-reminderSlack < minutesUntilDue <= m,
	// matching the dispatch cadence so a reminder is neither missed nor
	// repeated across ticks.
	reminderSlack = 15
)

// Candidate is one notification the current dispatch run intends to send.
// Candidates are ephemeral: built fresh each run, never persisted, and
// discarded after result aggregation.
type Candidate struct {
	Kind          notify.Kind
	UserID        uuid.UUID
	Task          domain.Task
	MinutesBefore int // set for reminders only
}

// BuildCandidates derives the notification candidates for one dispatch run
// from the given profiles. It is a pure function of the current time, the
// tasks' due times and the per-user preferences; all store access happens
// before it is called.
func BuildCandidates(now time.Time, profiles []domain.NotificationProfile) []Candidate {
	var candidates []Candidate
	for _, profile := range profiles {
		candidates = append(candidates, buildForUser(now, profile)...)
	}
	return candidates
}

func buildForUser(now time.Time, profile domain.NotificationProfile) []Candidate {
	prefs := profile.Preferences
	if !prefs.PushEnabled {
		return nil
	}

	local := now.In(prefs.Location())
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var candidates []Candidate
	for _, task := range profile.Tasks {
		if task.Completed || task.DueAt == nil {
			continue
		}
		due := *task.DueAt

		// A task due strictly in the past is overdue. A task due exactly
		// now is not overdue yet; it is classified as due today instead.
		if due.Before(now) {
			if local.Hour() == OverdueHour {
				candidates = append(candidates, Candidate{
					Kind:   notify.KindOverdue,
					UserID: profile.UserID,
					Task:   task,
				})
			}
			continue
		}

		localDue := due.In(local.Location())
		if local.Hour() == DueTodayHour && !localDue.Before(dayStart) && localDue.Before(dayEnd) {
			candidates = append(candidates, Candidate{
				Kind:   notify.KindDueToday,
				UserID: profile.UserID,
				Task:   task,
			})
		}

		// At most one reminder per task per run: the first matching lead
		// time wins.
		minutesUntil := due.Sub(now).Minutes()
		for _, lead := range prefs.LeadTimes() {
			if float64(lead-reminderSlack) < minutesUntil && minutesUntil <= float64(lead) {
				candidates = append(candidates, Candidate{
					Kind:          notify.KindReminder,
					UserID:        profile.UserID,
					Task:          task,
					MinutesBefore: lead,
				})
				break
			}
		}
	}
	return candidates
}
