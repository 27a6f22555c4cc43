package reminder

import "time"

// TriggerInstant is the target notification moment for an entity: its due
// instant minus the configured lead time.
func TriggerInstant(dueAt time.Time, lead time.Duration) time.Time {
	return dueAt.Add(-lead)
}

// IsDue reports whether now falls within tolerance of the trigger instant.
// Poll ticks are discrete while the trigger instant is a point in time, so
// the tolerance must be at least half the polling interval of the calling
// job or entities whose trigger falls between two ticks are never matched
// (ReminderConfig.Validate enforces this).
//
// All instants are compared on the absolute time line; timestamps read from
// storage without zone information are taken as UTC upstream. A zero lead is
// valid and means "notify at the due instant".
func IsDue(now, dueAt time.Time, lead, tolerance time.Duration) bool {
	diff := now.Sub(TriggerInstant(dueAt, lead))
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
