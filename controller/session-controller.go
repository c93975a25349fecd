package controller

import (
	"time"

	"pickem/app_error"
	"pickem/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionController is the participant-facing surface: token exchange
// plus pick read and submission, all scoped to the exchanged session's
// (participant, round) pair.
type SessionController struct {
	tokenService *service.TokenService
	pickService  *service.PickService
	roundService *service.RoundService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		tokenService: service.NewTokenService(db),
		pickService:  service.NewPickService(db),
		roundService: service.NewRoundService(db, nil),
	}
}

func setupSessionController(db *gorm.DB) []RouteInfo {
	e := NewSessionController(db)
	routes := []RouteInfo{
		{Method: "POST", Path: "/exchange", HandlerFunc: e.exchangeHandler()},
		{Method: "GET", Path: "/my/round", HandlerFunc: e.getMyRoundHandler(), SessionScoped: true},
		{Method: "PUT", Path: "/my/pick", HandlerFunc: e.submitMyPickHandler(), SessionScoped: true},
	}
	return routes
}

type ExchangeRequest struct {
	Token string `json:"token" binding:"required"`
}

type ExchangeResponse struct {
	Session string `json:"session"`
	UserId  int    `json:"user_id"`
	RoundId int    `json:"round_id"`
}

// @Description Exchanges a magic-link token for a session credential. The token stays valid until the round locks.
// @Tags session
// @Accept json
// @Produce json
// @Param token body ExchangeRequest true "Access token"
// @Success 200 {object} ExchangeResponse
// @Router /exchange [post]
func (e *SessionController) exchangeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request ExchangeRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		session, accessToken, err := e.tokenService.Exchange(request.Token)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		maxAge := int(time.Until(accessToken.ExpiresAt).Seconds())
		c.SetCookie("session", session, maxAge, "/", "", true, true)
		c.JSON(200, ExchangeResponse{
			Session: session,
			UserId:  accessToken.UserId,
			RoundId: accessToken.RoundId,
		})
	}
}

type MyRoundResponse struct {
	Round RoundResponse `json:"round"`
	Pick  *PickResponse `json:"pick"`
}

// @Description Fetches the session's round together with the participant's own pick
// @Tags session
// @Produce json
// @Success 200 {object} MyRoundResponse
// @Router /my/round [get]
func (e *SessionController) getMyRoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFromContext(c)
		if session == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		round, err := e.roundService.GetRound(session.RoundId, "Teams")
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		if round.DeletedAt.Valid {
			c.JSON(404, gin.H{"error": "Round not found"})
			return
		}
		response := MyRoundResponse{Round: toRoundResponse(round)}
		pick, err := e.pickService.GetPick(session.RoundId, session.UserId)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		if pick != nil {
			pickResponse := toPickResponse(pick)
			response.Pick = &pickResponse
		}
		c.JSON(200, response)
	}
}

// @Description Submits, replaces or clears the participant's pick for the session's round
// @Tags session
// @Accept json
// @Produce json
// @Param pick body PickSubmission true "Pick values; an empty list clears the pick"
// @Success 200 {object} PickResponse
// @Router /my/pick [put]
func (e *SessionController) submitMyPickHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFromContext(c)
		if session == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		var submission PickSubmission
		if err := c.BindJSON(&submission); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		pick, err := e.pickService.SubmitPick(session.RoundId, session.UserId, submission.Values)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, toPickResponse(pick))
	}
}
