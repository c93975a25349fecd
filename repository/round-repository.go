package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type RoundStatus string

const (
	RoundStatusDraft     RoundStatus = "draft"
	RoundStatusActive    RoundStatus = "active"
	RoundStatusLocked    RoundStatus = "locked"
	RoundStatusCompleted RoundStatus = "completed"
)

type PickType string

const (
	PickTypeSingle   PickType = "single"
	PickTypeMultiple PickType = "multiple"
)

type ReminderPolicy string

const (
	ReminderPolicyNone       ReminderPolicy = "none"
	ReminderPolicyDaily      ReminderPolicy = "daily"
	ReminderPolicyBeforeLock ReminderPolicy = "before_lock"
)

type Round struct {
	Id       int      `gorm:"primaryKey"`
	SeasonId int      `gorm:"not null"`
	Season   *Season  `gorm:"foreignKey:SeasonId;constraint:OnDelete:CASCADE"`
	Name     string   `gorm:"not null"`
	PickType PickType `gorm:"type:pickem.pick_type;not null;default:'single'"`
	// SlotCount is only meaningful when PickType is multiple.
	SlotCount int     `gorm:"not null;default:1"`
	Message   *string `gorm:"null"`
	// Deadline is the absolute UTC instant; Timezone is the IANA zone
	// the deadline was authored in, retained for display and for
	// reminder-offset math.
	Deadline           *time.Time     `gorm:"null"`
	Timezone           string         `gorm:"not null"`
	Status             RoundStatus    `gorm:"type:pickem.round_status;not null;default:'draft'"`
	ReminderPolicy     ReminderPolicy `gorm:"type:pickem.reminder_policy;not null;default:'daily'"`
	DailyReminderTime  string         `gorm:"not null;default:'18:00'"`
	FirstReminderHours *int           `gorm:"null"`
	FinalReminderHours *int           `gorm:"null"`
	PlacementFirst     *string        `gorm:"null"`
	PlacementSecond    *string        `gorm:"null"`
	PlacementThird     *string        `gorm:"null"`
	PlacementFourth    *string        `gorm:"null"`
	PlacementFifth     *string        `gorm:"null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
	Teams              []*Team        `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
}

// Placements returns the up-to-five placement values in priority
// order, first to fifth.
func (r *Round) Placements() []*string {
	return []*string{r.PlacementFirst, r.PlacementSecond, r.PlacementThird, r.PlacementFourth, r.PlacementFifth}
}

type RoundRepository struct {
	DB *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{DB: db}
}

// GetRoundById also returns soft-deleted rounds so that restore and
// permanent delete can reach them. Participant-facing lookups go
// through GetVisibleRoundById.
func (r *RoundRepository) GetRoundById(roundId int, preloads ...string) (*Round, error) {
	var round Round
	query := r.DB.Unscoped()
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) GetVisibleRoundById(roundId int, preloads ...string) (*Round, error) {
	var round Round
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&round, roundId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &round, nil
}

func (r *RoundRepository) GetRoundsBySeasonId(seasonId int, includeDeleted bool) ([]*Round, error) {
	rounds := make([]*Round, 0)
	query := r.DB
	if includeDeleted {
		query = query.Unscoped()
	}
	result := query.Order("deadline ASC NULLS LAST").Find(&rounds, "season_id = ?", seasonId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find rounds for season %d: %v", seasonId, result.Error)
	}
	return rounds, nil
}

func (r *RoundRepository) Save(round *Round) (*Round, error) {
	result := r.DB.Save(round)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save round: %v", result.Error)
	}
	return round, nil
}

// UpdateStatusIf transitions the round's status only if it still has
// the expected prior status. Returns false when another writer got
// there first.
func (r *RoundRepository) UpdateStatusIf(roundId int, from RoundStatus, to RoundStatus) (bool, error) {
	result := r.DB.Model(&Round{}).
		Where("id = ? AND status = ?", roundId, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update round status: %v", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetExpiredActiveRounds returns active rounds whose deadline has
// passed, for the scheduler's auto-lock pass.
func (r *RoundRepository) GetExpiredActiveRounds(now time.Time) ([]*Round, error) {
	rounds := make([]*Round, 0)
	result := r.DB.
		Where("status = ? AND deadline IS NOT NULL AND deadline <= ?", RoundStatusActive, now).
		Find(&rounds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find expired active rounds: %v", result.Error)
	}
	return rounds, nil
}

func (r *RoundRepository) GetActiveRounds() ([]*Round, error) {
	rounds := make([]*Round, 0)
	result := r.DB.Where("status = ?", RoundStatusActive).Find(&rounds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find active rounds: %v", result.Error)
	}
	return rounds, nil
}

func (r *RoundRepository) SoftDelete(round *Round) error {
	return r.DB.Delete(round).Error
}

func (r *RoundRepository) Restore(roundId int) error {
	return r.DB.Unscoped().Model(&Round{}).Where("id = ?", roundId).Update("deleted_at", nil).Error
}

// PermanentDelete removes the round row for good. Dependent teams,
// picks, pick items, scores, tokens and reminder logs go with it via
// their foreign key constraints.
func (r *RoundRepository) PermanentDelete(roundId int) error {
	return r.DB.Unscoped().Delete(&Round{}, roundId).Error
}
