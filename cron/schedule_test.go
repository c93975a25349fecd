package cron

import (
	"testing"
	"time"

	"pickem/repository"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int {
	return &i
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newYork(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)
	return loc
}

func TestDueReminderKindBeforeLockFirstWindow(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 10, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:           timePtr(deadline),
		Timezone:           "America/New_York",
		ReminderPolicy:     repository.ReminderPolicyBeforeLock,
		FirstReminderHours: intPtr(48),
		FinalReminderHours: intPtr(6),
	}

	// 48h before the deadline is 2025-01-08 18:00 local; a tick five
	// minutes later still falls inside a ten minute window.
	now := time.Date(2025, 1, 8, 18, 5, 0, 0, loc)
	kind, due := DueReminderKind(round, now, 10*time.Minute)
	assert.True(t, due)
	assert.Equal(t, "before_lock_first", kind)

	// One tick later the window has passed.
	now = time.Date(2025, 1, 8, 18, 15, 0, 0, loc)
	_, due = DueReminderKind(round, now, 10*time.Minute)
	assert.False(t, due)
}

func TestDueReminderKindBeforeLockFinalWins(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 10, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:           timePtr(deadline),
		Timezone:           "America/New_York",
		ReminderPolicy:     repository.ReminderPolicyBeforeLock,
		FirstReminderHours: intPtr(48),
		FinalReminderHours: intPtr(6),
	}

	// Final offset: 2025-01-10 12:00 local.
	now := time.Date(2025, 1, 10, 12, 0, 30, 0, loc)
	kind, due := DueReminderKind(round, now, time.Minute)
	assert.True(t, due)
	assert.Equal(t, "before_lock_final", kind)
}

func TestDueReminderKindBeforeLockMissingOffsets(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 10, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:       timePtr(deadline),
		Timezone:       "America/New_York",
		ReminderPolicy: repository.ReminderPolicyBeforeLock,
	}

	now := time.Date(2025, 1, 8, 18, 0, 0, 0, loc)
	_, due := DueReminderKind(round, now, time.Minute)
	assert.False(t, due)
}

func TestDueReminderKindDaily(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 20, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:          timePtr(deadline),
		Timezone:          "America/New_York",
		ReminderPolicy:    repository.ReminderPolicyDaily,
		DailyReminderTime: "18:00",
	}

	now := time.Date(2025, 1, 8, 18, 0, 10, 0, loc)
	kind, due := DueReminderKind(round, now, time.Minute)
	assert.True(t, due)
	assert.Equal(t, "daily:2025-01-08", kind)

	// The next day yields a fresh idempotency kind.
	now = now.Add(24 * time.Hour)
	kind, due = DueReminderKind(round, now, time.Minute)
	assert.True(t, due)
	assert.Equal(t, "daily:2025-01-09", kind)

	// Outside the window nothing is due.
	now = time.Date(2025, 1, 8, 17, 59, 0, 0, loc)
	_, due = DueReminderKind(round, now, time.Minute)
	assert.False(t, due)
}

func TestDueReminderKindDailyUsesRoundTimezone(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 20, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:          timePtr(deadline),
		Timezone:          "America/New_York",
		ReminderPolicy:    repository.ReminderPolicyDaily,
		DailyReminderTime: "18:00",
	}

	// 23:00 UTC is 18:00 in New York.
	now := time.Date(2025, 1, 8, 23, 0, 0, 0, time.UTC)
	kind, due := DueReminderKind(round, now, time.Minute)
	assert.True(t, due)
	assert.Equal(t, "daily:2025-01-08", kind)
}

func TestDueReminderKindNothingAfterDeadline(t *testing.T) {
	loc := newYork(t)
	deadline := time.Date(2025, 1, 10, 18, 0, 0, 0, loc).UTC()
	round := &repository.Round{
		Deadline:          timePtr(deadline),
		Timezone:          "America/New_York",
		ReminderPolicy:    repository.ReminderPolicyDaily,
		DailyReminderTime: "18:00",
	}

	now := deadline.Add(time.Second)
	_, due := DueReminderKind(round, now, time.Minute)
	assert.False(t, due)

	// Exactly at the deadline counts as expired too.
	_, due = DueReminderKind(round, deadline, time.Minute)
	assert.False(t, due)
}

func TestDueReminderKindNonePolicy(t *testing.T) {
	round := &repository.Round{
		Timezone:       "America/New_York",
		ReminderPolicy: repository.ReminderPolicyNone,
	}
	_, due := DueReminderKind(round, time.Now(), time.Minute)
	assert.False(t, due)
}
