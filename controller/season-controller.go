package controller

import (
	"strconv"

	"pickem/app_error"
	"pickem/repository"
	"pickem/service"
	"pickem/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SeasonController struct {
	seasonService *service.SeasonService
}

func NewSeasonController(db *gorm.DB) *SeasonController {
	return &SeasonController{seasonService: service.NewSeasonService(db)}
}

func setupSeasonController(db *gorm.DB) []RouteInfo {
	e := NewSeasonController(db)
	adminRoles := []string{"admin"}
	routes := []RouteInfo{
		{Method: "GET", Path: "/seasons", HandlerFunc: e.getSeasonsHandler(), Authenticated: true, RequiredRoles: adminRoles},
		// A static segment under /seasons/ would collide with the
		// :season_id parameter in gin's route tree.
		{Method: "GET", Path: "/current-season", HandlerFunc: e.getCurrentSeasonHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "POST", Path: "/seasons", HandlerFunc: e.createSeasonHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "GET", Path: "/seasons/:season_id/participants", HandlerFunc: e.getParticipantsHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "POST", Path: "/seasons/:season_id/participants", HandlerFunc: e.addParticipantHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "DELETE", Path: "/seasons/:season_id/participants/:user_id", HandlerFunc: e.removeParticipantHandler(), Authenticated: true, RequiredRoles: adminRoles},
	}
	return routes
}

type SeasonCreate struct {
	Id        int    `json:"id"`
	Name      string `json:"name" binding:"required"`
	IsCurrent bool   `json:"is_current"`
}

type SeasonResponse struct {
	Id        int    `json:"id"`
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
}

type ParticipantAdd struct {
	UserId int `json:"user_id" binding:"required"`
}

func toSeasonResponse(season *repository.Season) SeasonResponse {
	return SeasonResponse{Id: season.Id, Name: season.Name, IsCurrent: season.IsCurrent}
}

// @Description Lists all seasons
// @Tags season
// @Produce json
// @Success 200 {array} SeasonResponse
// @Router /seasons [get]
func (e *SeasonController) getSeasonsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasons, err := e.seasonService.GetAllSeasons()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(seasons, toSeasonResponse))
	}
}

// @Description Fetches the season marked current
// @Tags season
// @Produce json
// @Success 200 {object} SeasonResponse
// @Router /current-season [get]
func (e *SeasonController) getCurrentSeasonHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		season, err := e.seasonService.GetCurrentSeason()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toSeasonResponse(season))
	}
}

// @Description Creates or updates a season. Marking a season current clears the flag on any other season.
// @Tags season
// @Accept json
// @Produce json
// @Param season body SeasonCreate true "Season"
// @Success 201 {object} SeasonResponse
// @Router /seasons [post]
func (e *SeasonController) createSeasonHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var seasonCreate SeasonCreate
		if err := c.BindJSON(&seasonCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		season := &repository.Season{
			Id:        seasonCreate.Id,
			Name:      seasonCreate.Name,
			IsCurrent: seasonCreate.IsCurrent,
		}
		season, err := e.seasonService.CreateSeason(season)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toSeasonResponse(season))
	}
}

// @Description Lists the enabled users signed up to the season
// @Tags season
// @Produce json
// @Param season_id path int true "Season Id"
// @Success 200 {array} UserResponse
// @Router /seasons/{season_id}/participants [get]
func (e *SeasonController) getParticipantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid season id"})
			return
		}
		participants, appErr := e.seasonService.GetParticipants(seasonId)
		if appErr != nil {
			app_error.Respond(c, appErr)
			return
		}
		c.JSON(200, utils.Map(participants, toUserResponse))
	}
}

// @Description Signs a user up as a participant of the season
// @Tags season
// @Accept json
// @Param season_id path int true "Season Id"
// @Param participant body ParticipantAdd true "User to sign up"
// @Success 204
// @Router /seasons/{season_id}/participants [post]
func (e *SeasonController) addParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid season id"})
			return
		}
		var add ParticipantAdd
		if err := c.BindJSON(&add); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.seasonService.AddParticipant(seasonId, add.UserId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

// @Description Removes a user's season signup
// @Tags season
// @Param season_id path int true "Season Id"
// @Param user_id path int true "User Id"
// @Success 204
// @Router /seasons/{season_id}/participants/{user_id} [delete]
func (e *SeasonController) removeParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid season id"})
			return
		}
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid user id"})
			return
		}
		if err := e.seasonService.RemoveParticipant(seasonId, userId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}
