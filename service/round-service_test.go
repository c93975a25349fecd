package service

import (
	"testing"
	"time"

	"pickem/app_error"
	"pickem/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func TestResolveDeadline(t *testing.T) {
	deadline, err := ResolveDeadline("2025-01-10T18:00", "America/New_York")
	assert.NoError(t, err)

	// 18:00 in New York is 23:00 UTC in January.
	assert.Equal(t, time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC), deadline)
	assert.Equal(t, time.UTC, deadline.Location())
}

func TestResolveDeadlineRejectsBadInput(t *testing.T) {
	_, err := ResolveDeadline("2025-01-10T18:00", "Mars/Olympus")
	assert.True(t, app_error.IsType(err, app_error.Validation))

	_, err = ResolveDeadline("January 10th", "America/New_York")
	assert.True(t, app_error.IsType(err, app_error.Validation))
}

func TestApplyRoundInputDeadlineUsesStoredZone(t *testing.T) {
	round := &repository.Round{Timezone: "America/New_York"}

	err := applyRoundInput(round, RoundInput{DeadlineLocal: strPtr("2025-01-10T18:00")})
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC), *round.Deadline)
	assert.Equal(t, "America/New_York", round.Timezone)
}

func TestApplyRoundInputTimezoneChangeReinterpretsWallClock(t *testing.T) {
	round := &repository.Round{Timezone: "America/New_York"}
	err := applyRoundInput(round, RoundInput{DeadlineLocal: strPtr("2025-01-10T18:00")})
	assert.NoError(t, err)

	// Changing only the zone keeps the authored 18:00 wall clock.
	err = applyRoundInput(round, RoundInput{Timezone: strPtr("Europe/Berlin")})
	assert.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", round.Timezone)
	assert.Equal(t, time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC), *round.Deadline)
}

func TestApplyRoundInputTimezoneChangeWithoutDeadline(t *testing.T) {
	round := &repository.Round{Timezone: "America/New_York"}
	err := applyRoundInput(round, RoundInput{Timezone: strPtr("Europe/Berlin")})
	assert.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", round.Timezone)
	assert.Nil(t, round.Deadline)
}

func TestApplyRoundInputValidations(t *testing.T) {
	base := func() *repository.Round {
		return &repository.Round{
			Timezone:       "America/New_York",
			PickType:       repository.PickTypeSingle,
			SlotCount:      1,
			ReminderPolicy: repository.ReminderPolicyDaily,
		}
	}

	badPickType := repository.PickType("ranked")
	err := applyRoundInput(base(), RoundInput{PickType: &badPickType})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	err = applyRoundInput(base(), RoundInput{SlotCount: intPtr(0)})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	err = applyRoundInput(base(), RoundInput{SlotCount: intPtr(11)})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	badPolicy := repository.ReminderPolicy("hourly")
	err = applyRoundInput(base(), RoundInput{ReminderPolicy: &badPolicy})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	err = applyRoundInput(base(), RoundInput{DailyReminderTime: strPtr("6pm")})
	assert.True(t, app_error.IsType(err, app_error.Validation))
}

func TestApplyRoundInputBeforeLockOffsets(t *testing.T) {
	beforeLock := repository.ReminderPolicyBeforeLock
	round := &repository.Round{
		Timezone:       "America/New_York",
		PickType:       repository.PickTypeSingle,
		SlotCount:      1,
		ReminderPolicy: repository.ReminderPolicyDaily,
	}

	// Switching to before_lock without offsets is rejected.
	err := applyRoundInput(round, RoundInput{ReminderPolicy: &beforeLock})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	// The final offset must stay strictly below the first.
	err = applyRoundInput(round, RoundInput{
		ReminderPolicy:     &beforeLock,
		FirstReminderHours: intPtr(6),
		FinalReminderHours: intPtr(6),
	})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	err = applyRoundInput(round, RoundInput{
		ReminderPolicy:     &beforeLock,
		FirstReminderHours: intPtr(48),
		FinalReminderHours: intPtr(6),
	})
	assert.NoError(t, err)
	assert.Equal(t, 48, *round.FirstReminderHours)
	assert.Equal(t, 6, *round.FinalReminderHours)
}

func deletedRound(name string) *repository.Round {
	return &repository.Round{
		Id:        1,
		Name:      name,
		DeletedAt: gorm.DeletedAt{Time: time.Now().UTC(), Valid: true},
	}
}

func TestPermanentDeleteGuardRequiresExactConfirmation(t *testing.T) {
	round := deletedRound("Opening Week")

	// Anything but the exact round name is rejected before any row is
	// touched.
	for _, confirmation := range []string{"", "opening week", "Opening Week ", "Opening"} {
		err := permanentDeleteGuard(round, confirmation)
		assert.True(t, app_error.IsType(err, app_error.Validation))
	}

	assert.NoError(t, permanentDeleteGuard(round, "Opening Week"))
}

func TestPermanentDeleteGuardRequiresSoftDelete(t *testing.T) {
	round := &repository.Round{Id: 1, Name: "Opening Week"}

	err := permanentDeleteGuard(round, "Opening Week")
	assert.True(t, app_error.IsType(err, app_error.Conflict))
}

func TestLifecycleGuardRejectsDeletedRounds(t *testing.T) {
	// Activate, Lock, Complete and Unlock all share this guard.
	err := ensureNotDeleted(deletedRound("Opening Week"))
	assert.True(t, app_error.IsType(err, app_error.Conflict))

	assert.NoError(t, ensureNotDeleted(&repository.Round{Id: 1}))
}
