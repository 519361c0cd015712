package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultReminderLeadTimes is applied when a user has preferences enabled
// but never configured explicit lead times.
var DefaultReminderLeadTimes = []int{60}

// NotificationPreferences captures the per-user settings the dispatcher
// consults when deciding which notifications to emit.
type NotificationPreferences struct {
	UserID       uuid.UUID `json:"user_id"`
	PushEnabled  bool      `json:"push_enabled"`
	EmailEnabled bool      `json:"email_enabled"`

	// ReminderLeadTimes are the lead times, in minutes before the due time,
	// at which the user wants a reminder. At most one reminder fires per
	// task per dispatch run; the first matching lead time wins.
	ReminderLeadTimes []int `json:"reminder_lead_times"`

	// Timezone is an IANA zone name used to evaluate "local hour" rules
	// (overdue and due-today pushes). Empty means UTC.
	Timezone string `json:"timezone,omitempty"`
}

// Location resolves the user's timezone, falling back to UTC when the zone
// is unset or unknown.
func (p *NotificationPreferences) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LeadTimes returns the configured reminder lead times, or the default set
// when none are configured.
func (p *NotificationPreferences) LeadTimes() []int {
	if len(p.ReminderLeadTimes) == 0 {
		return DefaultReminderLeadTimes
	}
	return p.ReminderLeadTimes
}

// NotificationProfile bundles one user's preferences with their open tasks.
// It is the unit of work the dispatcher's candidate builder consumes.
type NotificationProfile struct {
	UserID      uuid.UUID               `json:"user_id"`
	Preferences NotificationPreferences `json:"preferences"`
	Tasks       []Task                  `json:"tasks"`
}
