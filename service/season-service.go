package service

import (
	"errors"

	"pickem/app_error"
	"pickem/repository"

	"gorm.io/gorm"
)

type SeasonService struct {
	seasonRepository *repository.SeasonRepository
	userRepository   *repository.UserRepository
}

func NewSeasonService(db *gorm.DB) *SeasonService {
	return &SeasonService{
		seasonRepository: repository.NewSeasonRepository(db),
		userRepository:   repository.NewUserRepository(db),
	}
}

func (s *SeasonService) GetAllSeasons() ([]*repository.Season, error) {
	return s.seasonRepository.FindAll()
}

func (s *SeasonService) GetSeasonById(seasonId int) (*repository.Season, error) {
	season, err := s.seasonRepository.GetSeasonById(seasonId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.NotFound, "season %d not found", seasonId)
		}
		return nil, err
	}
	return season, nil
}

func (s *SeasonService) GetCurrentSeason() (*repository.Season, error) {
	season, err := s.seasonRepository.GetCurrentSeason()
	if err != nil {
		return nil, app_error.New(app_error.NotFound, "no season is marked current")
	}
	return season, nil
}

func (s *SeasonService) CreateSeason(season *repository.Season) (*repository.Season, error) {
	if season.Name == "" {
		return nil, app_error.New(app_error.Validation, "season name is required")
	}
	return s.seasonRepository.Save(season)
}

func (s *SeasonService) GetParticipants(seasonId int) ([]*repository.User, error) {
	return s.seasonRepository.GetParticipants(seasonId)
}

func (s *SeasonService) AddParticipant(seasonId int, userId int) error {
	if _, err := s.GetSeasonById(seasonId); err != nil {
		return err
	}
	if _, err := s.userRepository.GetUserById(userId); err != nil {
		return app_error.New(app_error.NotFound, "user %d not found", userId)
	}
	return s.seasonRepository.AddParticipant(seasonId, userId)
}

func (s *SeasonService) RemoveParticipant(seasonId int, userId int) error {
	return s.seasonRepository.RemoveParticipant(seasonId, userId)
}
