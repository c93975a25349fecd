package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"pickem/config"
	"pickem/repository"

	"github.com/segmentio/kafka-go"
)

// ActivityService publishes round lifecycle transitions to the
// activity topic for the admin console's feed. Publication is
// best-effort: a broker outage is logged and otherwise ignored.
type ActivityService struct {
	writer *kafka.Writer
}

func NewActivityService() *ActivityService {
	return &ActivityService{writer: config.NewActivityWriter()}
}

type roundActivity struct {
	RoundId  int       `json:"round_id"`
	SeasonId int       `json:"season_id"`
	Action   string    `json:"action"`
	At       time.Time `json:"at"`
}

func (s *ActivityService) PublishRoundActivity(round *repository.Round, action string) {
	if s.writer == nil {
		return
	}
	payload, err := json.Marshal(roundActivity{
		RoundId:  round.Id,
		SeasonId: round.SeasonId,
		Action:   action,
		At:       time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to serialize round activity: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(round.Id)),
		Value: payload,
	})
	if err != nil {
		log.Printf("failed to publish %s activity for round %d: %v", action, round.Id, err)
	}
}
