package service

import (
	"time"

	"pickem/app_error"
	"pickem/repository"

	"github.com/gin-contrib/cache/persistence"
	"gorm.io/gorm"
)

const settingsCacheKey = "settings"
const settingsCacheTTL = 5 * time.Minute

// SettingsService fronts the settings row with a process-wide TTL
// cache. Updates invalidate the cache explicitly so readers never see
// stale weights for longer than one request after a change.
type SettingsService struct {
	settingsRepository *repository.SettingsRepository
	cache              *persistence.InMemoryStore
}

var settingsCache = persistence.NewInMemoryStore(settingsCacheTTL)

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		settingsRepository: repository.NewSettingsRepository(db),
		cache:              settingsCache,
	}
}

func (s *SettingsService) GetSettings() (*repository.Settings, error) {
	var cached repository.Settings
	if err := s.cache.Get(settingsCacheKey, &cached); err == nil {
		return &cached, nil
	}
	settings, err := s.settingsRepository.GetSettings()
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(settingsCacheKey, *settings, settingsCacheTTL)
	return settings, nil
}

func (s *SettingsService) UpdateSettings(settings *repository.Settings) (*repository.Settings, error) {
	if settings.DefaultReminderPolicy == repository.ReminderPolicyBeforeLock &&
		settings.DefaultFinalReminderHours >= settings.DefaultFirstReminderHours {
		return nil, app_error.New(app_error.Validation, "final reminder offset must be smaller than the first")
	}
	if _, err := time.LoadLocation(settings.DefaultTimezone); err != nil {
		return nil, app_error.New(app_error.Validation, "unknown timezone %q", settings.DefaultTimezone)
	}
	saved, err := s.settingsRepository.Save(settings)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(settingsCacheKey)
	return saved, nil
}
