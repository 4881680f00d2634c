package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/mail"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"
)

type AuthHandler struct {
	db           *gorm.DB
	userService  services.UserService
	tokenService services.TokenService
	mailer       mail.Mailer
	cfg          *config.Config
}

func NewAuthHandler(db *gorm.DB, userService services.UserService, tokenService services.TokenService, mailer mail.Mailer, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:           db,
		userService:  userService,
		tokenService: tokenService,
		mailer:       mailer,
		cfg:          cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Please provide email and password",
			"details": err.Error(),
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userService.Authenticate(h.db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Incorrect email or password",
			})
			return
		}
		c.Error(err)
		return
	}

	if err := h.setSessionCookie(c, user.ID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cfg.Auth.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, userID uuid.UUID) error {
	token, err := h.tokenService.Issue(userID)
	if err != nil {
		return err
	}
	c.SetCookie(
		middleware.SessionCookieName,
		token,
		int(h.cfg.Auth.TokenTTL.Seconds()),
		"/",
		"",
		h.cfg.Auth.CookieSecure,
		true,
	)
	return nil
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
