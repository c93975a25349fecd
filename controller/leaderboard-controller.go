package controller

import (
	"strconv"
	"time"

	"pickem/app_error"
	"pickem/service"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LeaderboardController struct {
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardController(db *gorm.DB) *LeaderboardController {
	return &LeaderboardController{leaderboardService: service.NewLeaderboardService(db)}
}

func setupLeaderboardController(db *gorm.DB, cacheStore *persistence.InMemoryStore) []RouteInfo {
	e := NewLeaderboardController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/leaderboard/:season_id", HandlerFunc: cache.CachePage(cacheStore, time.Minute, e.getLeaderboardHandler())},
	}
	return routes
}

// @Description Fetches the season standings aggregated over completed rounds
// @Tags leaderboard
// @Produce json
// @Param season_id path int true "Season Id"
// @Success 200 {array} service.LeaderboardEntry
// @Router /leaderboard/{season_id} [get]
func (e *LeaderboardController) getLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		seasonId, err := strconv.Atoi(c.Param("season_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid season id"})
			return
		}
		entries, appErr := e.leaderboardService.GetLeaderboard(seasonId)
		if appErr != nil {
			app_error.Respond(c, appErr)
			return
		}
		c.JSON(200, entries)
	}
}
