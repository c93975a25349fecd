package controller

import (
	"pickem/app_error"
	"pickem/repository"
	"pickem/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SettingsController struct {
	settingsService *service.SettingsService
}

func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{settingsService: service.NewSettingsService(db)}
}

func setupSettingsController(db *gorm.DB) []RouteInfo {
	e := NewSettingsController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/settings", HandlerFunc: e.getSettingsHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PATCH", Path: "/settings", HandlerFunc: e.updateSettingsHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

// SettingsUpdate carries only the fields the caller wants to change.
type SettingsUpdate struct {
	FirstPoints               *int    `json:"first_points"`
	SecondPoints              *int    `json:"second_points"`
	ThirdPoints               *int    `json:"third_points"`
	FourthPoints              *int    `json:"fourth_points"`
	FifthPoints               *int    `json:"fifth_points"`
	SixthPlusPoints           *int    `json:"sixth_plus_points"`
	NoPickPoints              *int    `json:"no_pick_points"`
	DefaultReminderPolicy     *string `json:"default_reminder_policy"`
	DefaultDailyReminderTime  *string `json:"default_daily_reminder_time"`
	DefaultFirstReminderHours *int    `json:"default_first_reminder_hours"`
	DefaultFinalReminderHours *int    `json:"default_final_reminder_hours"`
	DefaultTimezone           *string `json:"default_timezone"`
}

func (u *SettingsUpdate) applyTo(settings *repository.Settings) {
	if u.FirstPoints != nil {
		settings.FirstPoints = *u.FirstPoints
	}
	if u.SecondPoints != nil {
		settings.SecondPoints = *u.SecondPoints
	}
	if u.ThirdPoints != nil {
		settings.ThirdPoints = *u.ThirdPoints
	}
	if u.FourthPoints != nil {
		settings.FourthPoints = *u.FourthPoints
	}
	if u.FifthPoints != nil {
		settings.FifthPoints = *u.FifthPoints
	}
	if u.SixthPlusPoints != nil {
		settings.SixthPlusPoints = *u.SixthPlusPoints
	}
	if u.NoPickPoints != nil {
		settings.NoPickPoints = *u.NoPickPoints
	}
	if u.DefaultReminderPolicy != nil {
		settings.DefaultReminderPolicy = repository.ReminderPolicy(*u.DefaultReminderPolicy)
	}
	if u.DefaultDailyReminderTime != nil {
		settings.DefaultDailyReminderTime = *u.DefaultDailyReminderTime
	}
	if u.DefaultFirstReminderHours != nil {
		settings.DefaultFirstReminderHours = *u.DefaultFirstReminderHours
	}
	if u.DefaultFinalReminderHours != nil {
		settings.DefaultFinalReminderHours = *u.DefaultFinalReminderHours
	}
	if u.DefaultTimezone != nil {
		settings.DefaultTimezone = *u.DefaultTimezone
	}
}

// @Description Fetches the points weights and reminder defaults
// @Tags settings
// @Produce json
// @Success 200 {object} repository.Settings
// @Router /settings [get]
func (e *SettingsController) getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := e.settingsService.GetSettings()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, settings)
	}
}

// @Description Updates points weights or reminder defaults. Weight changes apply to all past and future rounds on the next read.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body SettingsUpdate true "Fields to change"
// @Success 200 {object} repository.Settings
// @Router /settings [patch]
func (e *SettingsController) updateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update SettingsUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		settings, err := e.settingsService.GetSettings()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		update.applyTo(settings)
		settings, err = e.settingsService.UpdateSettings(settings)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, settings)
	}
}
