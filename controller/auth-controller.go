package controller

import (
	"time"

	"pickem/auth"
	"pickem/config"
	"pickem/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthController struct {
	userService *service.UserService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{userService: service.NewUserService(db)}
}

func setupAuthController(db *gorm.DB) []RouteInfo {
	e := NewAuthController(db)
	routes := []RouteInfo{
		{Method: "POST", Path: "/auth/login", HandlerFunc: e.loginHandler()},
	}
	return routes
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	AdminKey string `json:"admin_key" binding:"required"`
}

// @Description Logs an operator in with their email and the shared admin key, setting the auth cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} UserResponse
// @Router /auth/login [post]
func (e *AuthController) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request LoginRequest
		if err := c.BindJSON(&request); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		adminKey := config.Env().AdminKey
		if adminKey == "" || request.AdminKey != adminKey {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		user, err := e.userService.GetUserByEmail(request.Email)
		if err != nil || !user.Enabled {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		token, err := auth.CreateToken(user)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		maxAge := int((21 * 24 * time.Hour).Seconds())
		c.SetCookie("auth", token, maxAge, "/", "", !config.IsDevelopment(), true)
		c.JSON(200, toUserResponse(user))
	}
}
