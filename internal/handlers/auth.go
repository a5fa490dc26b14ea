package handlers

import (
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/models"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db              *gorm.DB
	authService     services.AuthService
	registerService services.RegisterService
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService, registerService services.RegisterService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, registerService: registerService}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	User      UserProfile `json:"user"`
}

func profileOf(user *models.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	user, err := h.authService.LoginUser(h.db, req.Username, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      profileOf(user),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid request data: "+err.Error())
		return
	}

	user, err := h.registerService.RegisterUser(h.db, req)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      profileOf(user),
	})
}
