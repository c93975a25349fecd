package controller

import (
	"strconv"
	"time"

	"pickem/app_error"
	"pickem/repository"
	"pickem/service"
	"pickem/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PickController struct {
	pickService *service.PickService
	userService *service.UserService
}

func NewPickController(db *gorm.DB) *PickController {
	return &PickController{
		pickService: service.NewPickService(db),
		userService: service.NewUserService(db),
	}
}

func setupPickController(db *gorm.DB) []RouteInfo {
	e := NewPickController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/rounds/:round_id/picks", HandlerFunc: e.getPicksHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PUT", Path: "/rounds/:round_id/picks/:user_id", HandlerFunc: e.adminSubmitPickHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

type PickItemResponse struct {
	Slot   int    `json:"slot"`
	TeamId *int   `json:"team_id,omitempty"`
	Value  string `json:"value"`
}

type PickResponse struct {
	UserId       int                `json:"user_id"`
	UserName     string             `json:"user_name,omitempty"`
	Items        []PickItemResponse `json:"items"`
	Edited       bool               `json:"edited"`
	EditedById   *int               `json:"edited_by_id,omitempty"`
	EditedAt     *time.Time         `json:"edited_at,omitempty"`
	OriginalPick *string            `json:"original_pick,omitempty"`
}

func toPickResponse(pick *repository.Pick) PickResponse {
	response := PickResponse{
		UserId: pick.UserId,
		Items: utils.Map(pick.Items, func(item *repository.PickItem) PickItemResponse {
			return PickItemResponse{Slot: item.Slot, TeamId: item.TeamId, Value: item.Value()}
		}),
		Edited:       pick.Edited,
		EditedById:   pick.EditedById,
		EditedAt:     pick.EditedAt,
		OriginalPick: pick.OriginalPick,
	}
	if pick.User != nil {
		response.UserName = pick.User.Name
	}
	return response
}

// @Description Fetches all picks for a round, audit fields included
// @Tags pick
// @Produce json
// @Param roundId path int true "Round ID"
// @Success 200 {array} PickResponse
// @Router /rounds/{roundId}/picks [get]
func (e *PickController) getPicksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		picks, err := e.pickService.GetPicksForRound(roundId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(picks, toPickResponse))
	}
}

type PickSubmission struct {
	Values []service.PickValue `json:"values"`
}

// @Description Writes a pick on a participant's behalf, stamping the audit trail
// @Tags pick
// @Accept json
// @Produce json
// @Param roundId path int true "Round ID"
// @Param userId path int true "User ID"
// @Param pick body PickSubmission true "Pick values"
// @Success 200 {object} PickResponse
// @Router /rounds/{roundId}/picks/{userId} [put]
func (e *PickController) adminSubmitPickHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roundId, err := strconv.Atoi(c.Param("round_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var submission PickSubmission
		if err := c.BindJSON(&submission); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		editor, err := e.userService.GetUserById(c.GetInt("user_id"))
		if err != nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		pick, err := e.pickService.AdminSubmitPick(roundId, userId, submission.Values, editor)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toPickResponse(pick))
	}
}
