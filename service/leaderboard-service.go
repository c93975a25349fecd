package service

import (
	"sort"

	"pickem/repository"

	"gorm.io/gorm"
)

// LeaderboardEntry is a participant's season total, derived entirely
// at read time from score flags and the current points policy, so a
// policy change retroactively reweights every completed round.
type LeaderboardEntry struct {
	UserId      int         `json:"user_id"`
	UserName    string      `json:"user_name"`
	Points      int         `json:"points"`
	RoundPoints map[int]int `json:"round_points"`
}

type LeaderboardService struct {
	roundRepository  *repository.RoundRepository
	scoreRepository  *repository.ScoreRepository
	seasonRepository *repository.SeasonRepository
	settingsService  *SettingsService
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		roundRepository:  repository.NewRoundRepository(db),
		scoreRepository:  repository.NewScoreRepository(db),
		seasonRepository: repository.NewSeasonRepository(db),
		settingsService:  NewSettingsService(db),
	}
}

func (s *LeaderboardService) GetLeaderboard(seasonId int) ([]*LeaderboardEntry, error) {
	rounds, err := s.roundRepository.GetRoundsBySeasonId(seasonId, false)
	if err != nil {
		return nil, err
	}
	completed := make([]*repository.Round, 0, len(rounds))
	roundIds := make([]int, 0, len(rounds))
	for _, round := range rounds {
		if round.Status == repository.RoundStatusCompleted {
			completed = append(completed, round)
			roundIds = append(roundIds, round.Id)
		}
	}
	scores, err := s.scoreRepository.GetScoresForRounds(roundIds)
	if err != nil {
		return nil, err
	}
	participants, err := s.seasonRepository.GetParticipants(seasonId)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsService.GetSettings()
	if err != nil {
		return nil, err
	}

	scoreByUserRound := make(map[int]map[int]*repository.Score)
	for _, score := range scores {
		if scoreByUserRound[score.UserId] == nil {
			scoreByUserRound[score.UserId] = make(map[int]*repository.Score)
		}
		scoreByUserRound[score.UserId][score.RoundId] = score
	}

	entries := make([]*LeaderboardEntry, 0, len(participants))
	for _, user := range participants {
		entry := &LeaderboardEntry{
			UserId:      user.Id,
			UserName:    user.Name,
			RoundPoints: make(map[int]int, len(completed)),
		}
		for _, round := range completed {
			points := settings.NoPickPoints
			if score, ok := scoreByUserRound[user.Id][round.Id]; ok {
				points = settings.PointsFor(score.Placement())
			}
			entry.RoundPoints[round.Id] = points
			entry.Points += points
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserName < entries[j].UserName
	})
	return entries, nil
}
