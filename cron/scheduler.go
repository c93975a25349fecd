package cron

import (
	"context"
	"log"
	"strings"
	"time"

	"pickem/config"
	"pickem/metrics"
	"pickem/repository"
	"pickem/service"
	"pickem/utils"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Scheduler is the single periodic background task. Each tick it
// auto-locks active rounds whose deadline has passed and dispatches
// due reminders to participants without a pick. One round's failure
// never stops the rest of the tick.
type Scheduler struct {
	interval              time.Duration
	roundRepository       *repository.RoundRepository
	pickRepository        *repository.PickRepository
	seasonRepository      *repository.SeasonRepository
	reminderLogRepository *repository.ReminderLogRepository
	roundService          *service.RoundService
	notificationService   *service.NotificationService
}

func NewScheduler(db *gorm.DB, roundService *service.RoundService, notificationService *service.NotificationService) *Scheduler {
	return &Scheduler{
		interval:              time.Duration(config.Env().SchedulerIntervalSeconds) * time.Second,
		roundRepository:       repository.NewRoundRepository(db),
		pickRepository:        repository.NewPickRepository(db),
		seasonRepository:      repository.NewSeasonRepository(db),
		reminderLogRepository: repository.NewReminderLogRepository(db),
		roundService:          roundService,
		notificationService:   notificationService,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("scheduler started with a %s interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Print("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(time.Now().UTC())
		}
	}
}

func (s *Scheduler) Tick(now time.Time) {
	timer := prometheus.NewTimer(metrics.SchedulerTickDuration)
	defer timer.ObserveDuration()
	s.autoLockPass(now)
	s.reminderPass(now)
}

func (s *Scheduler) autoLockPass(now time.Time) {
	rounds, err := s.roundRepository.GetExpiredActiveRounds(now)
	if err != nil {
		log.Printf("auto-lock pass failed: %v", err)
		return
	}
	for _, round := range rounds {
		locked, err := s.roundService.AutoLock(round)
		if err != nil {
			log.Printf("failed to auto-lock round %d: %v", round.Id, err)
			continue
		}
		if locked {
			log.Printf("auto-locked round %d (%s)", round.Id, round.Name)
		}
	}
}

func (s *Scheduler) reminderPass(now time.Time) {
	rounds, err := s.roundRepository.GetActiveRounds()
	if err != nil {
		log.Printf("reminder pass failed: %v", err)
		return
	}
	for _, round := range rounds {
		kind, due := DueReminderKind(round, now, s.interval)
		if !due {
			continue
		}
		if err := s.remindRound(round, kind); err != nil {
			log.Printf("reminder dispatch failed for round %d: %v", round.Id, err)
		}
	}
}

// remindRound sends the due reminder to every participant without a
// pick, claiming the (round, participant, kind) log entry first so an
// overlapping tick cannot double-send.
func (s *Scheduler) remindRound(round *repository.Round, kind string) error {
	participants, err := s.seasonRepository.GetParticipants(round.SeasonId)
	if err != nil {
		return err
	}
	picks, err := s.pickRepository.GetPicksForRound(round.Id)
	if err != nil {
		return err
	}
	hasPick := make(map[int]bool, len(picks))
	for _, pick := range picks {
		if len(pick.Items) > 0 {
			hasPick[pick.UserId] = true
		}
	}
	label := kind
	if strings.HasPrefix(kind, "daily:") {
		label = "daily"
	}
	missing := utils.Filter(participants, func(user *repository.User) bool {
		return !hasPick[user.Id]
	})
	for _, user := range missing {
		claimed, err := s.reminderLogRepository.TryClaim(round.Id, user.Id, kind)
		if err != nil {
			log.Printf("failed to claim %s reminder for user %d on round %d: %v", kind, user.Id, round.Id, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := s.notificationService.SendReminder(round, user); err != nil {
			log.Printf("failed to send %s reminder to user %d on round %d: %v", kind, user.Id, round.Id, err)
			continue
		}
		metrics.RemindersSentCounter.WithLabelValues(label).Inc()
	}
	return nil
}
