package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"pickem/client"
	"pickem/config"
	"pickem/metrics"
	"pickem/repository"
)

// NotificationService fans mail out to participants with per-recipient
// isolation: one failed send is logged and counted, and never affects
// the other recipients or the lifecycle operation that triggered the
// batch. Callers invoke these methods after their transaction has
// committed, usually on a separate goroutine.
type NotificationService struct {
	mail client.MailSender
}

func NewNotificationService(mail client.MailSender) *NotificationService {
	return &NotificationService{mail: mail}
}

// deadlineLocal renders the deadline in the zone the round was
// authored in.
func deadlineLocal(round *repository.Round) string {
	if round.Deadline == nil {
		return ""
	}
	loc, err := time.LoadLocation(round.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return round.Deadline.In(loc).Format("Monday, January 2 2006 at 3:04 PM MST")
}

func (s *NotificationService) send(user *repository.User, template client.TemplateKind, data map[string]any) error {
	if err := s.mail.Send(user.Email, template, data); err != nil {
		metrics.MailFailedCounter.WithLabelValues(string(template)).Inc()
		return err
	}
	metrics.MailSentCounter.WithLabelValues(string(template)).Inc()
	return nil
}

func (s *NotificationService) fanOut(template client.TemplateKind, recipients []*repository.User, dataFor func(*repository.User) map[string]any) {
	var wg sync.WaitGroup
	for _, user := range recipients {
		wg.Add(1)
		go func(u *repository.User) {
			defer wg.Done()
			if err := s.send(u, template, dataFor(u)); err != nil {
				log.Printf("failed to send %s mail to user %d: %v", template, u.Id, err)
			}
		}(user)
	}
	wg.Wait()
}

// SendMagicLinks mails each participant their personal pick link for a
// freshly activated round.
func (s *NotificationService) SendMagicLinks(round *repository.Round, tokens []*repository.AccessToken, participants []*repository.User) {
	tokenByUser := make(map[int]string, len(tokens))
	for _, token := range tokens {
		tokenByUser[token.UserId] = token.Token
	}
	recipients := make([]*repository.User, 0, len(participants))
	for _, user := range participants {
		if _, ok := tokenByUser[user.Id]; ok {
			recipients = append(recipients, user)
		}
	}
	s.fanOut(client.TemplateMagicLink, recipients, func(u *repository.User) map[string]any {
		return map[string]any{
			"user_name":  u.Name,
			"round_name": round.Name,
			"deadline":   deadlineLocal(round),
			"message":    round.Message,
			"link":       fmt.Sprintf("%s/picks?token=%s", config.Env().FrontendURL, tokenByUser[u.Id]),
		}
	})
}

// SendLockNotifications tells participants that picks are closed.
func (s *NotificationService) SendLockNotifications(round *repository.Round, participants []*repository.User) {
	s.fanOut(client.TemplateLocked, participants, func(u *repository.User) map[string]any {
		return map[string]any{
			"user_name":  u.Name,
			"round_name": round.Name,
		}
	})
}

// SendReminder sends one reminder mail. The scheduler claims the
// reminder log entry before calling this, making the send at most
// once.
func (s *NotificationService) SendReminder(round *repository.Round, user *repository.User) error {
	return s.send(user, client.TemplateReminder, map[string]any{
		"user_name":  user.Name,
		"round_name": round.Name,
		"deadline":   deadlineLocal(round),
	})
}

// SendResults mails each scored participant their placement outcome
// together with a leaderboard snapshot taken after completion.
func (s *NotificationService) SendResults(round *repository.Round, placementByUser map[int]int, leaderboard []*LeaderboardEntry, participants []*repository.User) {
	snapshot := make([]map[string]any, 0, len(leaderboard))
	for _, entry := range leaderboard {
		snapshot = append(snapshot, map[string]any{
			"user_name": entry.UserName,
			"points":    entry.Points,
		})
	}
	recipients := make([]*repository.User, 0, len(participants))
	for _, user := range participants {
		if _, ok := placementByUser[user.Id]; ok {
			recipients = append(recipients, user)
		}
	}
	s.fanOut(client.TemplateResult, recipients, func(u *repository.User) map[string]any {
		return map[string]any{
			"user_name":   u.Name,
			"round_name":  round.Name,
			"placement":   placementByUser[u.Id],
			"leaderboard": snapshot,
		}
	})
}
