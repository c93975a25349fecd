package cron

import (
	"time"

	"pickem/repository"
)

// DueReminderKind reports whether the round's reminder policy calls
// for a reminder within the current tick window, and the idempotency
// kind recorded for it. The window is [threshold, threshold+interval):
// local-time and offset matches tolerate the tick period instead of
// requiring exact alignment.
func DueReminderKind(round *repository.Round, now time.Time, interval time.Duration) (string, bool) {
	if round.Deadline != nil && !now.Before(*round.Deadline) {
		return "", false
	}
	switch round.ReminderPolicy {
	case repository.ReminderPolicyDaily:
		loc, err := time.LoadLocation(round.Timezone)
		if err != nil {
			return "", false
		}
		target, err := time.Parse("15:04", round.DailyReminderTime)
		if err != nil {
			return "", false
		}
		local := now.In(loc)
		due := time.Date(local.Year(), local.Month(), local.Day(), target.Hour(), target.Minute(), 0, 0, loc)
		if !local.Before(due) && local.Sub(due) < interval {
			// The local date keys the log entry so the reminder
			// recurs once per day.
			return "daily:" + local.Format("2006-01-02"), true
		}
	case repository.ReminderPolicyBeforeLock:
		if round.Deadline == nil {
			return "", false
		}
		// Check the final offset first so a window covering both
		// offsets sends the one closer to the deadline.
		if round.FinalReminderHours != nil {
			threshold := round.Deadline.Add(-time.Duration(*round.FinalReminderHours) * time.Hour)
			if !now.Before(threshold) && now.Sub(threshold) < interval {
				return "before_lock_final", true
			}
		}
		if round.FirstReminderHours != nil {
			threshold := round.Deadline.Add(-time.Duration(*round.FirstReminderHours) * time.Hour)
			if !now.Before(threshold) && now.Sub(threshold) < interval {
				return "before_lock_first", true
			}
		}
	}
	return "", false
}
