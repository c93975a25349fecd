package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Team is one selectable entry for a single-pick-type round. Picks
// reference the team id, not its name, so a rename never invalidates
// existing picks.
type Team struct {
	Id      int    `gorm:"primaryKey"`
	RoundId int    `gorm:"not null;index"`
	Round   *Round `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
	Name    string `gorm:"not null"`
}

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) GetTeamsByRoundId(roundId int) ([]*Team, error) {
	teams := make([]*Team, 0)
	result := r.DB.Order("id ASC").Find(&teams, "round_id = ?", roundId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find teams for round %d: %v", roundId, result.Error)
	}
	return teams, nil
}

// ReplaceTeams reconciles the round's team list against the submitted
// one: teams with a known id are renamed in place, new entries are
// inserted, and teams missing from the submission are removed.
func (r *TeamRepository) ReplaceTeams(roundId int, teams []*Team) ([]*Team, error) {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		keptIds := make([]int, 0)
		for _, team := range teams {
			team.RoundId = roundId
			if err := tx.Save(team).Error; err != nil {
				return err
			}
			keptIds = append(keptIds, team.Id)
		}
		query := tx.Where("round_id = ?", roundId)
		if len(keptIds) > 0 {
			query = query.Where("id NOT IN ?", keptIds)
		}
		return query.Delete(&Team{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace teams for round %d: %v", roundId, err)
	}
	return teams, nil
}
