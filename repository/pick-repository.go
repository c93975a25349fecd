package repository

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Pick holds one participant's submission for a round. Items are
// replaced wholesale on resubmission; the row itself survives until
// the round is deleted so the admin-edit audit fields persist across
// cleared picks.
type Pick struct {
	Id      int    `gorm:"primaryKey"`
	RoundId int    `gorm:"not null;uniqueIndex:idx_picks_user_round"`
	UserId  int    `gorm:"not null;uniqueIndex:idx_picks_user_round"`
	Round   *Round `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
	User    *User  `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	// Audit trail for admin edits on the participant's behalf.
	// OriginalPick captures the pre-edit value once, on the first
	// admin edit only, and is never overwritten afterwards.
	Edited       bool       `gorm:"not null;default:false"`
	EditedById   *int       `gorm:"null"`
	EditedBy     *User      `gorm:"foreignKey:EditedById"`
	EditedAt     *time.Time `gorm:"null"`
	OriginalPick *string    `gorm:"null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []*PickItem `gorm:"foreignKey:PickId;constraint:OnDelete:CASCADE"`
}

// PickItem is one slot of a pick: a team reference for single pick
// type, free text for multiple. Exactly one of TeamId and FreeText is
// set.
type PickItem struct {
	Id       int     `gorm:"primaryKey"`
	PickId   int     `gorm:"not null;index"`
	Slot     int     `gorm:"not null"`
	TeamId   *int    `gorm:"null"`
	Team     *Team   `gorm:"foreignKey:TeamId;constraint:OnDelete:CASCADE"`
	FreeText *string `gorm:"null"`
}

// Value renders the item for matching and display: the team name for
// team references, the raw text otherwise.
func (i *PickItem) Value() string {
	if i.Team != nil {
		return i.Team.Name
	}
	if i.FreeText != nil {
		return *i.FreeText
	}
	return ""
}

type PickRepository struct {
	DB *gorm.DB
}

func NewPickRepository(db *gorm.DB) *PickRepository {
	return &PickRepository{DB: db}
}

func (r *PickRepository) GetPickForUser(roundId int, userId int) (*Pick, error) {
	var pick Pick
	result := r.DB.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("slot ASC") }).
		Preload("Items.Team").
		First(&pick, &Pick{RoundId: roundId, UserId: userId})
	if result.Error != nil {
		return nil, result.Error
	}
	return &pick, nil
}

func (r *PickRepository) GetPicksForRound(roundId int) ([]*Pick, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetPicksForRound"))
	defer timer.ObserveDuration()
	picks := make([]*Pick, 0)
	result := r.DB.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("slot ASC") }).
		Preload("Items.Team").
		Preload("User").
		Find(&picks, "round_id = ?", roundId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find picks for round %d: %v", roundId, result.Error)
	}
	return picks, nil
}

// ReplaceItems swaps the pick's items for the supplied list inside one
// transaction and persists any audit field changes on the pick row.
func (r *PickRepository) ReplaceItems(pick *Pick, items []*PickItem) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(pick).Error; err != nil {
			return err
		}
		if err := tx.Where("pick_id = ?", pick.Id).Delete(&PickItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			item.Id = 0
			item.PickId = pick.Id
		}
		return tx.Create(items).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace pick items: %v", err)
	}
	pick.Items = items
	return nil
}
