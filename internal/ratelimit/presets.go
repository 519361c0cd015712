package ratelimit

import "time"

// Named policy presets per route class. These are policy data, not
// separate algorithms: every preset runs the same fixed-window counter.
var (
	// General covers ordinary authenticated API traffic.
	General = Policy{RouteTag: "api", Limit: 100, Window: time.Minute}

	// Auth throttles login and registration attempts aggressively.
	Auth = Policy{RouteTag: "auth", Limit: 10, Window: time.Minute}

	// Push bounds client-initiated push-notification triggers.
	Push = Policy{RouteTag: "push", Limit: 20, Window: time.Minute}

	// CalendarSync bounds calendar synchronization triggers.
	CalendarSync = Policy{RouteTag: "calendar", Limit: 10, Window: time.Minute}

	// Email bounds outbound email triggers, which are the most expensive
	// downstream operation.
	Email = Policy{RouteTag: "email", Limit: 5, Window: time.Hour}
)

// Presets indexes the named policies by route tag for lookup from
// configuration or admin tooling.
var Presets = map[string]Policy{
	General.RouteTag:      General,
	Auth.RouteTag:         Auth,
	Push.RouteTag:         Push,
	CalendarSync.RouteTag: CalendarSync,
	Email.RouteTag:        Email,
}

// Override returns a copy of p with a non-zero limit and window applied.
// Used to layer config-file overrides on top of the presets.
func Override(p Policy, limit int, window time.Duration) Policy {
	if limit > 0 {
		p.Limit = limit
	}
	if window > 0 {
		p.Window = window
	}
	return p
}
