package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/backend/internal/apperr"
)

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=3"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,min=6"`
}

// Register creates the account and logs the new user straight in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Passwords do not match",
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	user, err := h.userService.Register(h.db, req.Name, req.Email, req.Password)
	if err != nil {
		appErr := apperr.From(err)
		if appErr.Status == http.StatusConflict {
			c.JSON(http.StatusConflict, gin.H{
				"error":   appErr.Code,
				"message": appErr.Message,
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

	c.JSON(http.StatusCreated, gin.H{"user": user})
}
