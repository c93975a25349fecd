package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Settings is the single-row table holding the points policy weights
// and the global reminder defaults new rounds inherit.
type Settings struct {
	Id int `gorm:"primaryKey"`
	// Points per placement, applied at read time only.
	FirstPoints     int `gorm:"not null;default:10"`
	SecondPoints    int `gorm:"not null;default:7"`
	ThirdPoints     int `gorm:"not null;default:5"`
	FourthPoints    int `gorm:"not null;default:3"`
	FifthPoints     int `gorm:"not null;default:1"`
	SixthPlusPoints int `gorm:"not null;default:0"`
	NoPickPoints    int `gorm:"not null;default:-1"`
	// Reminder defaults used when a round does not override them.
	DefaultReminderPolicy     ReminderPolicy `gorm:"type:pickem.reminder_policy;not null;default:'daily'"`
	DefaultDailyReminderTime  string         `gorm:"not null;default:'18:00'"`
	DefaultFirstReminderHours int            `gorm:"not null;default:48"`
	DefaultFinalReminderHours int            `gorm:"not null;default:6"`
	DefaultTimezone           string         `gorm:"not null;default:'America/New_York'"`
}

// PointsFor maps a placement (1..5, 6 for sixth or worse) onto the
// configured weight.
func (s *Settings) PointsFor(placement int) int {
	switch placement {
	case 1:
		return s.FirstPoints
	case 2:
		return s.SecondPoints
	case 3:
		return s.ThirdPoints
	case 4:
		return s.FourthPoints
	case 5:
		return s.FifthPoints
	default:
		return s.SixthPlusPoints
	}
}

type SettingsRepository struct {
	DB *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

// GetSettings returns the settings row, creating it with defaults on
// first access.
func (r *SettingsRepository) GetSettings() (*Settings, error) {
	settings := &Settings{Id: 1}
	result := r.DB.FirstOrCreate(settings, &Settings{Id: 1})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load settings: %v", result.Error)
	}
	return settings, nil
}

func (r *SettingsRepository) Save(settings *Settings) (*Settings, error) {
	settings.Id = 1
	result := r.DB.Save(settings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save settings: %v", result.Error)
	}
	return settings, nil
}
