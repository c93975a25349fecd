package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pickem/app_error"
	"pickem/metrics"
	"pickem/repository"
	"pickem/scoring"

	"gorm.io/gorm"
)

// deadlineLayout is the wall-clock format deadlines are authored in.
// The instant is interpreted in the round's declared timezone and
// stored as UTC.
const deadlineLayout = "2006-01-02T15:04"

func ResolveDeadline(local string, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, app_error.New(app_error.Validation, "unknown timezone %q", timezone)
	}
	t, err := time.ParseInLocation(deadlineLayout, local, loc)
	if err != nil {
		return time.Time{}, app_error.New(app_error.Validation, "deadline must match %s", deadlineLayout)
	}
	return t.UTC(), nil
}

// RoundInput carries patch-style field updates for create and edit.
// Nil fields keep their current (or default) value.
type RoundInput struct {
	Name               *string                    `json:"name"`
	PickType           *repository.PickType       `json:"pick_type"`
	SlotCount          *int                       `json:"slot_count"`
	Message            *string                    `json:"message"`
	DeadlineLocal      *string                    `json:"deadline"`
	Timezone           *string                    `json:"timezone"`
	ReminderPolicy     *repository.ReminderPolicy `json:"reminder_policy"`
	DailyReminderTime  *string                    `json:"daily_reminder_time"`
	FirstReminderHours *int                       `json:"first_reminder_hours"`
	FinalReminderHours *int                       `json:"final_reminder_hours"`
}

type ManualScore struct {
	UserId    int    `json:"user_id"`
	Placement string `json:"placement"`
}

type CompleteInput struct {
	First        string        `json:"first" binding:"required"`
	Second       *string       `json:"second"`
	Third        *string       `json:"third"`
	Fourth       *string       `json:"fourth"`
	Fifth        *string       `json:"fifth"`
	ManualScores []ManualScore `json:"manual_scores"`
}

// RoundService is the round lifecycle controller. It owns the state
// machine, the transactional side effects of each transition, and the
// post-commit notification dispatch.
type RoundService struct {
	db                    *gorm.DB
	roundRepository       *repository.RoundRepository
	pickRepository        *repository.PickRepository
	seasonRepository      *repository.SeasonRepository
	reminderLogRepository *repository.ReminderLogRepository
	tokenService          *TokenService
	settingsService       *SettingsService
	notificationService   *NotificationService
	leaderboardService    *LeaderboardService
	activityService       *ActivityService
}

func NewRoundService(db *gorm.DB, notificationService *NotificationService) *RoundService {
	return &RoundService{
		db:                    db,
		roundRepository:       repository.NewRoundRepository(db),
		pickRepository:        repository.NewPickRepository(db),
		seasonRepository:      repository.NewSeasonRepository(db),
		reminderLogRepository: repository.NewReminderLogRepository(db),
		tokenService:          NewTokenService(db),
		settingsService:       NewSettingsService(db),
		notificationService:   notificationService,
		leaderboardService:    NewLeaderboardService(db),
		activityService:       NewActivityService(),
	}
}

// ensureNotDeleted rejects lifecycle transitions on soft-deleted
// rounds; they must be restored first.
func ensureNotDeleted(round *repository.Round) error {
	if round.DeletedAt.Valid {
		return app_error.New(app_error.Conflict, "round is deleted")
	}
	return nil
}

func (s *RoundService) GetRound(roundId int, preloads ...string) (*repository.Round, error) {
	round, err := s.roundRepository.GetRoundById(roundId, preloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.NotFound, "round %d not found", roundId)
		}
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	return round, nil
}

func (s *RoundService) GetRoundsBySeason(seasonId int, includeDeleted bool) ([]*repository.Round, error) {
	return s.roundRepository.GetRoundsBySeasonId(seasonId, includeDeleted)
}

func (s *RoundService) CreateRound(seasonId int, input RoundInput) (*repository.Round, error) {
	if _, err := s.seasonRepository.GetSeasonById(seasonId); err != nil {
		return nil, app_error.New(app_error.NotFound, "season %d not found", seasonId)
	}
	settings, err := s.settingsService.GetSettings()
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	firstHours := settings.DefaultFirstReminderHours
	finalHours := settings.DefaultFinalReminderHours
	round := &repository.Round{
		SeasonId:           seasonId,
		Status:             repository.RoundStatusDraft,
		PickType:           repository.PickTypeSingle,
		SlotCount:          1,
		Timezone:           settings.DefaultTimezone,
		ReminderPolicy:     settings.DefaultReminderPolicy,
		DailyReminderTime:  settings.DefaultDailyReminderTime,
		FirstReminderHours: &firstHours,
		FinalReminderHours: &finalHours,
	}
	if err := applyRoundInput(round, input); err != nil {
		return nil, err
	}
	return s.roundRepository.Save(round)
}

func (s *RoundService) UpdateRound(roundId int, input RoundInput) (*repository.Round, error) {
	round, err := s.GetRound(roundId)
	if err != nil {
		return nil, err
	}
	if round.Status == repository.RoundStatusCompleted {
		return nil, app_error.New(app_error.Conflict, "completed rounds cannot be edited")
	}
	if err := applyRoundInput(round, input); err != nil {
		return nil, err
	}
	return s.roundRepository.Save(round)
}

// applyRoundInput merges the input onto the round and re-derives the
// stored UTC deadline whenever the raw time or the timezone changes.
// A new time without a new zone reuses the round's stored zone.
func applyRoundInput(round *repository.Round, input RoundInput) error {
	if input.Name != nil {
		round.Name = strings.TrimSpace(*input.Name)
	}
	if input.Message != nil {
		round.Message = input.Message
	}
	if input.PickType != nil {
		if *input.PickType != repository.PickTypeSingle && *input.PickType != repository.PickTypeMultiple {
			return app_error.New(app_error.Validation, "unknown pick type %q", *input.PickType)
		}
		round.PickType = *input.PickType
	}
	if input.SlotCount != nil {
		if *input.SlotCount < 1 || *input.SlotCount > 10 {
			return app_error.New(app_error.Validation, "slot count must be between 1 and 10")
		}
		round.SlotCount = *input.SlotCount
	}
	if input.ReminderPolicy != nil {
		switch *input.ReminderPolicy {
		case repository.ReminderPolicyNone, repository.ReminderPolicyDaily, repository.ReminderPolicyBeforeLock:
			round.ReminderPolicy = *input.ReminderPolicy
		default:
			return app_error.New(app_error.Validation, "unknown reminder policy %q", *input.ReminderPolicy)
		}
	}
	if input.DailyReminderTime != nil {
		if _, err := time.Parse("15:04", *input.DailyReminderTime); err != nil {
			return app_error.New(app_error.Validation, "daily reminder time must match 15:04")
		}
		round.DailyReminderTime = *input.DailyReminderTime
	}
	if input.FirstReminderHours != nil {
		if *input.FirstReminderHours < 1 {
			return app_error.New(app_error.Validation, "first reminder offset must be positive")
		}
		round.FirstReminderHours = input.FirstReminderHours
	}
	if input.FinalReminderHours != nil {
		if *input.FinalReminderHours < 1 {
			return app_error.New(app_error.Validation, "final reminder offset must be positive")
		}
		round.FinalReminderHours = input.FinalReminderHours
	}
	if round.ReminderPolicy == repository.ReminderPolicyBeforeLock {
		if round.FirstReminderHours == nil || round.FinalReminderHours == nil {
			return app_error.New(app_error.Validation, "before_lock policy requires both reminder offsets")
		}
		if *round.FinalReminderHours >= *round.FirstReminderHours {
			return app_error.New(app_error.Validation, "final reminder offset must be smaller than the first")
		}
	}

	switch {
	case input.DeadlineLocal != nil:
		timezone := round.Timezone
		if input.Timezone != nil {
			timezone = *input.Timezone
		}
		deadline, err := ResolveDeadline(*input.DeadlineLocal, timezone)
		if err != nil {
			return err
		}
		round.Deadline = &deadline
		round.Timezone = timezone
	case input.Timezone != nil:
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return app_error.New(app_error.Validation, "unknown timezone %q", *input.Timezone)
		}
		if round.Deadline != nil {
			// Keep the authored wall-clock time and reinterpret it in
			// the new zone.
			oldLoc, err := time.LoadLocation(round.Timezone)
			if err != nil {
				oldLoc = time.UTC
			}
			wallClock := round.Deadline.In(oldLoc).Format(deadlineLayout)
			deadline, err := ResolveDeadline(wallClock, *input.Timezone)
			if err != nil {
				return err
			}
			round.Deadline = &deadline
		}
		round.Timezone = *input.Timezone
	}
	return nil
}

// Activate transitions a draft round to active, mints one access token
// per enabled season participant, and mails the magic links. A retried
// call on an already active round re-issues tokens and resends links
// without creating duplicates.
func (s *RoundService) Activate(roundId int) (*repository.Round, error) {
	round, err := s.GetRound(roundId, "Teams")
	if err != nil {
		return nil, err
	}
	if err := ensureNotDeleted(round); err != nil {
		return nil, err
	}
	if round.Status != repository.RoundStatusDraft && round.Status != repository.RoundStatusActive {
		return nil, app_error.New(app_error.Conflict, "round is %s and cannot be activated", round.Status)
	}

	missing := make([]string, 0)
	if round.Name == "" {
		missing = append(missing, "name")
	}
	if round.Deadline == nil {
		missing = append(missing, "deadline")
	}
	if round.Timezone == "" {
		missing = append(missing, "timezone")
	}
	switch round.PickType {
	case repository.PickTypeSingle:
		if len(round.Teams) == 0 {
			missing = append(missing, "at least one team")
		}
	case repository.PickTypeMultiple:
		if round.SlotCount < 1 {
			missing = append(missing, "a positive slot count")
		}
	default:
		missing = append(missing, "pick type")
	}
	if len(missing) > 0 {
		return nil, app_error.New(app_error.PreconditionFailed, "cannot activate round: missing %s", strings.Join(missing, ", "))
	}

	participants, err := s.seasonRepository.GetParticipants(round.SeasonId)
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	tokens, err := s.tokenService.IssueBatch(round, participants)
	if err != nil {
		return nil, err
	}
	if round.Status == repository.RoundStatusDraft {
		if _, err := s.roundRepository.UpdateStatusIf(round.Id, repository.RoundStatusDraft, repository.RoundStatusActive); err != nil {
			return nil, app_error.Wrap(app_error.Transient, err)
		}
		round.Status = repository.RoundStatusActive
	}
	go s.notificationService.SendMagicLinks(round, tokens, participants)
	s.activityService.PublishRoundActivity(round, "activated")
	return round, nil
}

// Lock is the manual active to locked transition.
func (s *RoundService) Lock(roundId int) (*repository.Round, error) {
	round, err := s.GetRound(roundId)
	if err != nil {
		return nil, err
	}
	if err := ensureNotDeleted(round); err != nil {
		return nil, err
	}
	ok, err := s.roundRepository.UpdateStatusIf(round.Id, repository.RoundStatusActive, repository.RoundStatusLocked)
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	if !ok {
		return nil, app_error.New(app_error.Conflict, "round is not active")
	}
	round.Status = repository.RoundStatusLocked
	s.dispatchLockNotifications(round)
	s.activityService.PublishRoundActivity(round, "locked")
	return round, nil
}

// AutoLock is the scheduler's variant of Lock. The conditional status
// update makes it race-safe against a concurrent manual lock: only the
// caller that wins the transition dispatches notifications.
func (s *RoundService) AutoLock(round *repository.Round) (bool, error) {
	ok, err := s.roundRepository.UpdateStatusIf(round.Id, repository.RoundStatusActive, repository.RoundStatusLocked)
	if err != nil || !ok {
		return false, err
	}
	round.Status = repository.RoundStatusLocked
	metrics.RoundsAutoLockedCounter.Inc()
	s.dispatchLockNotifications(round)
	s.activityService.PublishRoundActivity(round, "auto_locked")
	return true, nil
}

func (s *RoundService) dispatchLockNotifications(round *repository.Round) {
	participants, err := s.seasonRepository.GetParticipants(round.SeasonId)
	if err != nil {
		log.Printf("failed to load participants for lock notifications on round %d: %v", round.Id, err)
		return
	}
	go s.notificationService.SendLockNotifications(round, participants)
}

// Complete transitions a locked round to completed: it stores the
// placement results, computes and upserts the score flags in the same
// transaction, and mails results after the commit. Re-running after an
// unlock overwrites the prior flags.
func (s *RoundService) Complete(roundId int, input CompleteInput) (*repository.Round, error) {
	round, err := s.GetRound(roundId, "Teams")
	if err != nil {
		return nil, err
	}
	if err := ensureNotDeleted(round); err != nil {
		return nil, err
	}
	if round.Status != repository.RoundStatusLocked {
		return nil, app_error.New(app_error.Conflict, "only locked rounds can be completed")
	}
	first := strings.TrimSpace(input.First)
	if first == "" {
		return nil, app_error.New(app_error.Validation, "a first place result is required")
	}
	if round.PickType == repository.PickTypeMultiple && len(input.ManualScores) == 0 {
		return nil, app_error.New(app_error.Validation, "free-text rounds require manual placements")
	}

	round.PlacementFirst = &first
	round.PlacementSecond = input.Second
	round.PlacementThird = input.Third
	round.PlacementFourth = input.Fourth
	round.PlacementFifth = input.Fifth

	picks, err := s.pickRepository.GetPicksForRound(round.Id)
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	var outcome map[int]scoring.Placement
	if round.PickType == repository.PickTypeSingle {
		outcome = scoring.EvaluateSingleRound(picks, round.Placements())
	} else {
		assignments := make(map[int]scoring.Placement, len(input.ManualScores))
		for _, manual := range input.ManualScores {
			placement, err := scoring.ParsePlacement(manual.Placement)
			if err != nil {
				return nil, app_error.New(app_error.Validation, "manual score for user %d: %v", manual.UserId, err)
			}
			assignments[manual.UserId] = placement
		}
		outcome = scoring.EvaluateManualRound(picks, assignments)
	}
	scores := scoring.BuildScores(round.Id, outcome)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&repository.Round{}).
			Where("id = ? AND status = ?", round.Id, repository.RoundStatusLocked).
			Updates(map[string]any{
				"status":           repository.RoundStatusCompleted,
				"placement_first":  round.PlacementFirst,
				"placement_second": round.PlacementSecond,
				"placement_third":  round.PlacementThird,
				"placement_fourth": round.PlacementFourth,
				"placement_fifth":  round.PlacementFifth,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("round %d left the locked state", round.Id)
		}
		return repository.NewScoreRepository(tx).UpsertScores(scores)
	})
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	round.Status = repository.RoundStatusCompleted
	metrics.ScoresComputedCounter.Add(float64(len(scores)))

	go s.dispatchResultNotifications(round, outcome)
	s.activityService.PublishRoundActivity(round, "completed")
	return round, nil
}

func (s *RoundService) dispatchResultNotifications(round *repository.Round, outcome map[int]scoring.Placement) {
	participants, err := s.seasonRepository.GetParticipants(round.SeasonId)
	if err != nil {
		log.Printf("failed to load participants for result notifications on round %d: %v", round.Id, err)
		return
	}
	leaderboard, err := s.leaderboardService.GetLeaderboard(round.SeasonId)
	if err != nil {
		log.Printf("failed to build leaderboard snapshot for round %d: %v", round.Id, err)
		leaderboard = nil
	}
	placementByUser := make(map[int]int, len(outcome))
	for userId, placement := range outcome {
		placementByUser[userId] = int(placement)
	}
	s.notificationService.SendResults(round, placementByUser, leaderboard, participants)
}

// Unlock reopens a completed round for correction. Placement values
// and score rows are intentionally retained until the round is
// re-completed, so a partial fix does not require re-entering
// everything.
func (s *RoundService) Unlock(roundId int) (*repository.Round, error) {
	round, err := s.GetRound(roundId)
	if err != nil {
		return nil, err
	}
	if err := ensureNotDeleted(round); err != nil {
		return nil, err
	}
	ok, err := s.roundRepository.UpdateStatusIf(round.Id, repository.RoundStatusCompleted, repository.RoundStatusLocked)
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	if !ok {
		return nil, app_error.New(app_error.Conflict, "round is not completed")
	}
	round.Status = repository.RoundStatusLocked
	s.activityService.PublishRoundActivity(round, "unlocked")
	return round, nil
}

func (s *RoundService) SoftDelete(roundId int) error {
	round, err := s.GetRound(roundId)
	if err != nil {
		return err
	}
	if round.DeletedAt.Valid {
		return app_error.New(app_error.Conflict, "round is already deleted")
	}
	if err := s.roundRepository.SoftDelete(round); err != nil {
		return app_error.Wrap(app_error.Transient, err)
	}
	// Outstanding magic links die with the round instead of staying
	// valid until the deadline. Re-activation after a restore mints a
	// fresh batch.
	if err := s.tokenService.RevokeForRound(round.Id); err != nil {
		log.Printf("failed to revoke tokens for deleted round %d: %v", round.Id, err)
	}
	s.activityService.PublishRoundActivity(round, "deleted")
	return nil
}

// GetReminderLogs returns the reminder dispatch history for the round.
func (s *RoundService) GetReminderLogs(roundId int) ([]*repository.ReminderLog, error) {
	if _, err := s.GetRound(roundId); err != nil {
		return nil, err
	}
	logs, err := s.reminderLogRepository.GetLogsForRound(roundId)
	if err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	return logs, nil
}

func (s *RoundService) Restore(roundId int) error {
	round, err := s.GetRound(roundId)
	if err != nil {
		return err
	}
	if !round.DeletedAt.Valid {
		return app_error.New(app_error.Conflict, "round is not deleted")
	}
	if err := s.roundRepository.Restore(roundId); err != nil {
		return app_error.Wrap(app_error.Transient, err)
	}
	s.activityService.PublishRoundActivity(round, "restored")
	return nil
}

// permanentDeleteGuard enforces the irreversibility checks: the round
// must already be soft-deleted and the caller must repeat its exact
// name as the confirmation phrase.
func permanentDeleteGuard(round *repository.Round, confirmation string) error {
	if !round.DeletedAt.Valid {
		return app_error.New(app_error.Conflict, "only soft-deleted rounds can be permanently deleted")
	}
	if confirmation != round.Name {
		return app_error.New(app_error.Validation, "confirmation phrase does not match the round name")
	}
	return nil
}

// PermanentDelete irreversibly removes a soft-deleted round and
// everything referencing it. Role gating happens at the route layer.
func (s *RoundService) PermanentDelete(roundId int, confirmation string) error {
	round, err := s.GetRound(roundId)
	if err != nil {
		return err
	}
	if err := permanentDeleteGuard(round, confirmation); err != nil {
		return err
	}
	if err := s.roundRepository.PermanentDelete(roundId); err != nil {
		return app_error.Wrap(app_error.Transient, err)
	}
	s.activityService.PublishRoundActivity(round, "permanently_deleted")
	return nil
}
