package service

import (
	"errors"
	"strings"

	"pickem/app_error"
	"pickem/repository"

	"gorm.io/gorm"
)

type TeamService struct {
	teamRepository  *repository.TeamRepository
	roundRepository *repository.RoundRepository
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{
		teamRepository:  repository.NewTeamRepository(db),
		roundRepository: repository.NewRoundRepository(db),
	}
}

func (s *TeamService) GetTeams(roundId int) ([]*repository.Team, error) {
	return s.teamRepository.GetTeamsByRoundId(roundId)
}

// ReplaceTeams reconciles the round's selectable teams. Renames keep
// the team id, so existing picks stay valid.
func (s *TeamService) ReplaceTeams(roundId int, teams []*repository.Team) ([]*repository.Team, error) {
	round, err := s.roundRepository.GetRoundById(roundId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.NotFound, "round %d not found", roundId)
		}
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	if round.PickType != repository.PickTypeSingle {
		return nil, app_error.New(app_error.Validation, "only single pick rounds have teams")
	}
	if round.Status == repository.RoundStatusCompleted {
		return nil, app_error.New(app_error.Conflict, "completed rounds cannot be edited")
	}
	for _, team := range teams {
		if strings.TrimSpace(team.Name) == "" {
			return nil, app_error.New(app_error.Validation, "team name is required")
		}
	}
	return s.teamRepository.ReplaceTeams(roundId, teams)
}
