package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Season struct {
	Id        int    `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	IsCurrent bool   `gorm:"not null;default:false"`
}

// SeasonUser signs a user up as a participant of a season. Disabled
// users keep their membership rows but are excluded from token
// issuance and notifications.
type SeasonUser struct {
	SeasonId  int     `gorm:"primaryKey"`
	UserId    int     `gorm:"primaryKey"`
	Season    *Season `gorm:"foreignKey:SeasonId;constraint:OnDelete:CASCADE"`
	User      *User   `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type SeasonRepository struct {
	DB *gorm.DB
}

func NewSeasonRepository(db *gorm.DB) *SeasonRepository {
	return &SeasonRepository{DB: db}
}

func (r *SeasonRepository) GetSeasonById(seasonId int) (*Season, error) {
	var season Season
	result := r.DB.First(&season, seasonId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &season, nil
}

func (r *SeasonRepository) GetCurrentSeason() (*Season, error) {
	var season Season
	result := r.DB.Where("is_current = ?", true).First(&season)
	if result.Error != nil {
		return nil, fmt.Errorf("no current season found: %v", result.Error)
	}
	return &season, nil
}

func (r *SeasonRepository) Save(season *Season) (*Season, error) {
	if season.IsCurrent {
		if err := r.InvalidateCurrentSeason(); err != nil {
			return nil, err
		}
	}
	result := r.DB.Save(season)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save season: %v", result.Error)
	}
	return season, nil
}

func (r *SeasonRepository) InvalidateCurrentSeason() error {
	result := r.DB.Model(&Season{}).Where("is_current = ?", true).Update("is_current", false)
	if result.Error != nil {
		return fmt.Errorf("failed to invalidate current season: %v", result.Error)
	}
	return nil
}

func (r *SeasonRepository) FindAll() ([]*Season, error) {
	seasons := make([]*Season, 0)
	result := r.DB.Order("id ASC").Find(&seasons)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find seasons: %v", result.Error)
	}
	return seasons, nil
}

// GetParticipants returns the enabled users signed up to the season.
func (r *SeasonRepository) GetParticipants(seasonId int) ([]*User, error) {
	users := make([]*User, 0)
	result := r.DB.
		Joins("JOIN pickem.season_users ON pickem.season_users.user_id = pickem.users.id").
		Where("pickem.season_users.season_id = ? AND pickem.users.enabled = ?", seasonId, true).
		Order("pickem.users.id ASC").
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find participants for season %d: %v", seasonId, result.Error)
	}
	return users, nil
}

func (r *SeasonRepository) AddParticipant(seasonId int, userId int) error {
	signup := &SeasonUser{SeasonId: seasonId, UserId: userId}
	result := r.DB.FirstOrCreate(signup, &SeasonUser{SeasonId: seasonId, UserId: userId})
	if result.Error != nil {
		return fmt.Errorf("failed to add participant: %v", result.Error)
	}
	return nil
}

func (r *SeasonRepository) RemoveParticipant(seasonId int, userId int) error {
	return r.DB.Delete(&SeasonUser{}, &SeasonUser{SeasonId: seasonId, UserId: userId}).Error
}
