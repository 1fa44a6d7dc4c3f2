package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jobtracknow/jobtrack-api/internal/middleware"
	"github.com/jobtracknow/jobtrack-api/internal/models"
	"github.com/jobtracknow/jobtrack-api/internal/services"
)

type UserController struct {
	users services.UserService
}

func NewUserController(users services.UserService) UserController {
	return UserController{users: users}
}

// CreateUserRequest is the POST /v1/user body.
type CreateUserRequest struct {
	Login     string `json:"login" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

// CheckEmpty reports whether any users exist yet. Public: the frontend uses
// it during initial setup to decide whether to offer first-user creation.
// @Summary Check if the users table is empty
// @Tags users
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /v1/user/empty [get]
func (u UserController) CheckEmpty(c *gin.Context) {
	count, err := u.users.CountUsers()
	if err != nil {
		log.WithError(err).Error("Failed to check users table")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to check users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"empty": count == 0})
}

// CreateUser creates an account. The first account may be created without a
// token (the middleware's bootstrap window); afterwards a valid token is
// required like everywhere else.
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User to create"
// @Success 201 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /v1/user [post]
func (u UserController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid user payload"})
		return
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to create user"})
		return
	}

	user := &models.User{
		Login:     req.Login,
		Passwd:    hashed,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
	}
	if err := u.users.CreateUser(user); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusConflict, models.ErrorResponse{Detail: "User already exists"})
			return
		}
		log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to create user"})
		return
	}

	log.WithField("login", user.Login).Info("User created")
	c.JSON(http.StatusCreated, user)
}

// GetCurrentUser returns the profile of the authenticated user, identified by
// the claims the middleware attached to the request.
// @Summary Get the current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /v1/user [get]
func (u UserController) GetCurrentUser(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Not authenticated"})
		return
	}

	user, err := u.users.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "User not found"})
			return
		}
		log.WithError(err).Error("Failed to load current user")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to retrieve user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// LookupUser fetches a user by login.
// @Summary Look up a user by username
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username query string true "Login to look up"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /v1/user/lookup [get]
func (u UserController) LookupUser(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "username is required"})
		return
	}

	user, err := u.users.GetUserByLogin(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "User with username " + username + " not found"})
			return
		}
		log.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to retrieve user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account. Admin only.
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /v1/user/{id} [delete]
func (u UserController) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid user id"})
		return
	}
	if err := u.users.DeleteUser(uint(id)); err != nil {
		log.WithError(err).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to delete user"})
		return
	}
	c.Status(http.StatusNoContent)
}
