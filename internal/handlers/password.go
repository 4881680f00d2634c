package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskboard/backend/internal/apperr"
	"taskboard/backend/internal/mail"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/services"
)

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues a reset token and mails it. A failed delivery rolls
// the token back so the user can retry.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Please provide email",
			"details": err.Error(),
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userService.GetByEmail(h.db, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No user found with that email",
			})
			return
		}
		c.Error(err)
		return
	}

	rawToken, err := h.userService.IssueResetToken(h.db, user)
	if err != nil {
		c.Error(err)
		return
	}

	subject, body := mail.ResetMessage(h.cfg.Server.BaseURL, rawToken)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		// Leave no live token behind when the mail never went out.
		if clearErr := h.userService.ClearResetToken(h.db, user); clearErr != nil {
			c.Error(clearErr)
			return
		}
		c.Error(apperr.MailDelivery(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reset token sent to your email",
	})
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,min=6"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Passwords do not match",
		})
		return
	}

	if _, err := h.userService.ConsumeResetToken(h.db, c.Param("token"), req.NewPassword); err != nil {
		appErr := apperr.From(err)
		if appErr.Status == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   appErr.Code,
				"message": appErr.Message,
			})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully, log in with your new password",
	})
}

type DeleteMeRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) DeleteMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User not authenticated",
		})
		return
	}

	var req DeleteMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Please provide your password",
			"details": err.Error(),
		})
		return
	}

	if err := h.userService.DeleteAccount(h.db, user, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Incorrect password",
			})
			return
		}
		c.Error(err)
		return
	}

	middleware.ClearSessionCookie(c, h.cfg.Auth.CookieSecure)
	c.Status(http.StatusNoContent)
}
