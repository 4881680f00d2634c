package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskboard/backend/internal/services"
)

const (
	ContextUserKey   = "current_user"
	ContextUserIDKey = "user_id"

	SessionCookieName = "token"
)

// AuthGate verifies the session token, resolves the user and rejects
// sessions issued before the user's last password change. cookieSecure must
// match the attribute the session cookie was set with, or the rejection
// cannot clear it.
func AuthGate(db *gorm.DB, tokens services.TokenService, users services.UserService, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "You are not logged in. Please log in to get access.",
			})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			message := "Invalid token. Please log in again."
			if errors.Is(err, services.ErrTokenExpired) {
				message = "Your token has expired. Please log in again."
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
			})
			return
		}

		user, err := users.GetByID(db, claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "The user belonging to this token no longer exists.",
			})
			return
		}

		if user.IssuedBeforePasswordChange(claims.IssuedAt) {
			// The session predates a password change; force a fresh login.
			ClearSessionCookie(c, cookieSecure)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Password was changed recently. Please log in again.",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
