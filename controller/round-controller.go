package controller

import (
	"strconv"
	"time"

	"pickem/app_error"
	"pickem/client"
	"pickem/repository"
	"pickem/service"
	"pickem/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoundController struct {
	roundService *service.RoundService
	teamService  *service.TeamService
}

func NewRoundController(db *gorm.DB, notificationService *service.NotificationService) *RoundController {
	return &RoundController{
		roundService: service.NewRoundService(db, notificationService),
		teamService:  service.NewTeamService(db),
	}
}

func setupRoundController(db *gorm.DB) []RouteInfo {
	e := NewRoundController(db, service.NewNotificationService(client.NewMailClient()))
	routes := []RouteInfo{
		{Method: "POST", Path: "/seasons/:season_id/rounds", HandlerFunc: e.createRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/seasons/:season_id/rounds", HandlerFunc: e.getRoundsHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/rounds/:round_id", HandlerFunc: e.getRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PATCH", Path: "/rounds/:round_id", HandlerFunc: e.updateRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/rounds/:round_id/activate", HandlerFunc: e.activateRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/rounds/:round_id/lock", HandlerFunc: e.lockRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/rounds/:round_id/complete", HandlerFunc: e.completeRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/rounds/:round_id/unlock", HandlerFunc: e.unlockRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/rounds/:round_id", HandlerFunc: e.softDeleteRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/rounds/:round_id/restore", HandlerFunc: e.restoreRoundHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/rounds/:round_id/permanent", HandlerFunc: e.permanentDeleteRoundHandler(), Authenticated: true, RequiredRoles: []string{"primary_admin"}},
		{Method: "PUT", Path: "/rounds/:round_id/teams", HandlerFunc: e.replaceTeamsHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/rounds/:round_id/reminders", HandlerFunc: e.getReminderLogsHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

type TeamResponse struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

type RoundResponse struct {
	Id                 int            `json:"id"`
	SeasonId           int            `json:"season_id"`
	Name               string         `json:"name"`
	PickType           string         `json:"pick_type"`
	SlotCount          int            `json:"slot_count"`
	Message            *string        `json:"message"`
	Deadline           *time.Time     `json:"deadline"`
	Timezone           string         `json:"timezone"`
	Status             string         `json:"status"`
	ReminderPolicy     string         `json:"reminder_policy"`
	DailyReminderTime  string         `json:"daily_reminder_time"`
	FirstReminderHours *int           `json:"first_reminder_hours"`
	FinalReminderHours *int           `json:"final_reminder_hours"`
	PlacementFirst     *string        `json:"placement_first"`
	PlacementSecond    *string        `json:"placement_second"`
	PlacementThird     *string        `json:"placement_third"`
	PlacementFourth    *string        `json:"placement_fourth"`
	PlacementFifth     *string        `json:"placement_fifth"`
	Deleted            bool           `json:"deleted"`
	Teams              []TeamResponse `json:"teams,omitempty"`
}

func toTeamResponse(team *repository.Team) TeamResponse {
	return TeamResponse{Id: team.Id, Name: team.Name}
}

func toRoundResponse(round *repository.Round) RoundResponse {
	return RoundResponse{
		Id:                 round.Id,
		SeasonId:           round.SeasonId,
		Name:               round.Name,
		PickType:           string(round.PickType),
		SlotCount:          round.SlotCount,
		Message:            round.Message,
		Deadline:           round.Deadline,
		Timezone:           round.Timezone,
		Status:             string(round.Status),
		ReminderPolicy:     string(round.ReminderPolicy),
		DailyReminderTime:  round.DailyReminderTime,
		FirstReminderHours: round.FirstReminderHours,
		FinalReminderHours: round.FinalReminderHours,
		PlacementFirst:     round.PlacementFirst,
		PlacementSecond:    round.PlacementSecond,
		PlacementThird:     round.PlacementThird,
		PlacementFourth:    round.PlacementFourth,
		PlacementFifth:     round.PlacementFifth,
		Deleted:            round.DeletedAt.Valid,
		Teams:              utils.Map(round.Teams, toTeamResponse),
	}
}

// @Description Creates a draft round in a season
// @Tags round
// @Accept json
// @Produce json
// @Param seasonId path int true "Season ID"
// @Param round body service.RoundInput true "Round fields"
// @Success 201 {object} RoundResponse
// @Router /seasons/{seasonId}/rounds [post]
func (e *RoundController) createRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var input service.RoundInput
		if err := c.BindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.CreateRound(seasonId, input)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toRoundResponse(round))
	}
}

// @Description Fetches all rounds of a season, soft-deleted ones included
// @Tags round
// @Produce json
// @Param seasonId path int true "Season ID"
// @Success 200 {array} RoundResponse
// @Router /seasons/{seasonId}/rounds [get]
func (e *RoundController) getRoundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		rounds, err := e.roundService.GetRoundsBySeason(seasonId, true)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(rounds, func(round *repository.Round) RoundResponse {
			return toRoundResponse(round)
		}))
	}
}

// @Description Fetches a round by id
// @Tags round
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId} [get]
func (e *RoundController) getRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.GetRound(roundId, "Teams")
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Updates a round's fields
// @Tags round
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param round body service.RoundInput true "Fields to update"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId} [patch]
func (e *RoundController) updateRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var input service.RoundInput
		if err := c.BindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.UpdateRound(roundId, input)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Activates a round, issuing access tokens and mailing magic links
// @Tags round
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId}/activate [post]
func (e *RoundController) activateRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.Activate(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Locks a round manually
// @Tags round
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId}/lock [post]
func (e *RoundController) lockRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.Lock(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Completes a locked round with final placements and computes scores
// @Tags round
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param placements body service.CompleteInput true "Final placements"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId}/complete [post]
func (e *RoundController) completeRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var input service.CompleteInput
		if err := c.BindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.Complete(roundId, input)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Unlocks a completed round for correction
// @Tags round
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {object} RoundResponse
// @Router /rounds/{roundId}/unlock [post]
func (e *RoundController) unlockRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		round, err := e.roundService.Unlock(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toRoundResponse(round))
	}
}

// @Description Soft-deletes a round
// @Tags round
// @Param roundId path int true "Round ID"
// @Success 204
// @Router /rounds/{roundId} [delete]
func (e *RoundController) softDeleteRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.roundService.SoftDelete(roundId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

// @Description Restores a soft-deleted round
// @Tags round
// @Param roundId path int true "Round ID"
// @Success 204
// @Router /rounds/{roundId}/restore [post]
func (e *RoundController) restoreRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.roundService.Restore(roundId); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

type PermanentDeleteRequest struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

// @Description Permanently deletes a soft-deleted round and everything referencing it
// @Tags round
// @Accept json
// @Param roundId path int true "Round ID"
// @Param confirmation body PermanentDeleteRequest true "Round name, typed exactly"
// @Success 204
// @Router /rounds/{roundId}/permanent [delete]
func (e *RoundController) permanentDeleteRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var request PermanentDeleteRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.roundService.PermanentDelete(roundId, request.Confirmation); err != nil {
			app_error.Respond(c, err)
			return
		}
		c.Status(204)
	}
}

type ReminderLogResponse struct {
	UserId int       `json:"user_id"`
	Kind   string    `json:"kind"`
	SentAt time.Time `json:"sent_at"`
}

func toReminderLogResponse(log *repository.ReminderLog) ReminderLogResponse {
	return ReminderLogResponse{UserId: log.UserId, Kind: log.Kind, SentAt: log.SentAt}
}

// @Description Lists the reminders already dispatched for the round
// @Tags round
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {array} ReminderLogResponse
// @Router /rounds/{roundId}/reminders [get]
func (e *RoundController) getReminderLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		logs, err := e.roundService.GetReminderLogs(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(logs, toReminderLogResponse))
	}
}

type TeamInput struct {
	Id   int    `json:"id"`
	Name string `json:"name" binding:"required"`
}

// @Description Replaces the round's team list; known ids are renamed in place
// @Tags round
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param teams body []TeamInput true "Teams"
// @Success 200 {array} TeamResponse
// @Router /rounds/{roundId}/teams [put]
func (e *RoundController) replaceTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var inputs []TeamInput
		if err := c.BindJSON(&inputs); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		teams := utils.Map(inputs, func(input TeamInput) *repository.Team {
			return &repository.Team{Id: input.Id, Name: input.Name}
		})
		saved, err := e.teamService.ReplaceTeams(roundId, teams)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(saved, toTeamResponse))
	}
}
