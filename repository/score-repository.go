package repository

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Score stores a participant's placement outcome for a round as
// boolean flags, never as points. Exactly one flag is true. Points are
// derived at read time from the current points policy, so reweighting
// never rewrites score rows.
type Score struct {
	UserId    int    `gorm:"primaryKey"`
	RoundId   int    `gorm:"primaryKey"`
	User      *User  `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Round     *Round `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
	First     bool   `gorm:"not null;default:false"`
	Second    bool   `gorm:"not null;default:false"`
	Third     bool   `gorm:"not null;default:false"`
	Fourth    bool   `gorm:"not null;default:false"`
	Fifth     bool   `gorm:"not null;default:false"`
	SixthPlus bool   `gorm:"not null;default:false"`
}

// Placement returns the 1-based placement the flags encode, with 6
// meaning sixth or worse.
func (s *Score) Placement() int {
	switch {
	case s.First:
		return 1
	case s.Second:
		return 2
	case s.Third:
		return 3
	case s.Fourth:
		return 4
	case s.Fifth:
		return 5
	default:
		return 6
	}
}

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

// UpsertScores overwrites any prior flags for each (participant,
// round) key, so re-running completion corrects rather than duplicates.
func (r *ScoreRepository) UpsertScores(scores []*Score) error {
	if len(scores) == 0 {
		return nil
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first", "second", "third", "fourth", "fifth", "sixth_plus"}),
	}).Create(scores)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert scores: %v", result.Error)
	}
	return nil
}

func (r *ScoreRepository) GetScoresForRound(roundId int) ([]*Score, error) {
	scores := make([]*Score, 0)
	result := r.DB.Find(&scores, "round_id = ?", roundId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find scores for round %d: %v", roundId, result.Error)
	}
	return scores, nil
}

func (r *ScoreRepository) GetScoresForRounds(roundIds []int) ([]*Score, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetScoresForRounds"))
	defer timer.ObserveDuration()
	scores := make([]*Score, 0)
	if len(roundIds) == 0 {
		return scores, nil
	}
	result := r.DB.Find(&scores, "round_id IN ?", roundIds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find scores: %v", result.Error)
	}
	return scores, nil
}
