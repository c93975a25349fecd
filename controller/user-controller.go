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

type UserController struct {
	userService *service.UserService
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{userService: service.NewUserService(db)}
}

func setupUserController(db *gorm.DB) []RouteInfo {
	e := NewUserController(db)
	adminRoles := []string{"admin"}
	routes := []RouteInfo{
		{Method: "GET", Path: "/users", HandlerFunc: e.getUsersHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "POST", Path: "/users", HandlerFunc: e.createUserHandler(), Authenticated: true, RequiredRoles: adminRoles},
		{Method: "PATCH", Path: "/users/:user_id", HandlerFunc: e.updateUserHandler(), Authenticated: true, RequiredRoles: adminRoles},
	}
	return routes
}

type UserCreate struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type UserUpdate struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Enabled     *bool     `json:"enabled"`
	Permissions *[]string `json:"permissions"`
}

type UserResponse struct {
	Id          int      `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Enabled     bool     `json:"enabled"`
	Permissions []string `json:"permissions"`
}

func toUserResponse(user *repository.User) UserResponse {
	return UserResponse{
		Id:          user.Id,
		Name:        user.Name,
		Email:       user.Email,
		Enabled:     user.Enabled,
		Permissions: user.Permissions,
	}
}

// @Description Lists all users
// @Tags user
// @Produce json
// @Success 200 {array} UserResponse
// @Router /users [get]
func (e *UserController) getUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := e.userService.GetAllUsers()
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(200, utils.Map(users, toUserResponse))
	}
}

// @Description Creates a user
// @Tags user
// @Accept json
// @Produce json
// @Param user body UserCreate true "User"
// @Success 201 {object} UserResponse
// @Router /users [post]
func (e *UserController) createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userCreate UserCreate
		if err := c.BindJSON(&userCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user := &repository.User{
			Name:        userCreate.Name,
			Email:       userCreate.Email,
			Enabled:     true,
			Permissions: []string{},
		}
		user, err := e.userService.SaveUser(user)
		if err != nil {
			app_error.Respond(c, err)
			return
		}
		c.JSON(201, toUserResponse(user))
	}
}

// @Description Updates a user's name, email, enabled flag or permissions
// @Tags user
// @Accept json
// @Produce json
// @Param user_id path int true "User Id"
// @Param user body UserUpdate true "Fields to change"
// @Success 200 {object} UserResponse
// @Router /users/{user_id} [patch]
func (e *UserController) updateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid user id"})
			return
		}
		var update UserUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, appErr := e.userService.GetUserById(userId)
		if appErr != nil {
			app_error.Respond(c, app_error.New(app_error.NotFound, "user %d not found", userId))
			return
		}
		if update.Name != nil {
			user.Name = *update.Name
		}
		if update.Email != nil {
			user.Email = *update.Email
		}
		if update.Enabled != nil {
			user.Enabled = *update.Enabled
		}
		if update.Permissions != nil {
			user.Permissions = *update.Permissions
		}
		user, appErr = e.userService.SaveUser(user)
		if appErr != nil {
			app_error.Respond(c, appErr)
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}
