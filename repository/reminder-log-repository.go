package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReminderLog records one dispatched reminder per (round, participant,
// kind). The primary key makes reminder dispatch at-most-once even
// when scheduler ticks overlap: the tick that fails to insert skips
// the send.
type ReminderLog struct {
	RoundId int       `gorm:"primaryKey"`
	UserId  int       `gorm:"primaryKey"`
	Kind    string    `gorm:"primaryKey"`
	Round   *Round    `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
	User    *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	SentAt  time.Time `gorm:"not null"`
}

type ReminderLogRepository struct {
	DB *gorm.DB
}

func NewReminderLogRepository(db *gorm.DB) *ReminderLogRepository {
	return &ReminderLogRepository{DB: db}
}

// TryClaim inserts the log row and reports whether this caller won the
// claim. A conflicting row means another tick already sent this
// reminder.
func (r *ReminderLogRepository) TryClaim(roundId int, userId int, kind string) (bool, error) {
	log := &ReminderLog{RoundId: roundId, UserId: userId, Kind: kind, SentAt: time.Now().UTC()}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(log)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim reminder log: %v", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ReminderLogRepository) GetLogsForRound(roundId int) ([]*ReminderLog, error) {
	logs := make([]*ReminderLog, 0)
	result := r.DB.Find(&logs, "round_id = ?", roundId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find reminder logs for round %d: %v", roundId, result.Error)
	}
	return logs, nil
}
