package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/backend/internal/apperr"
)

// ErrorRenderer turns errors attached through c.Error into one JSON body.
// Development mode includes the underlying detail; deployed mode returns
// only status + message.
func ErrorRenderer(logger *zap.Logger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperr.From(err)

		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		body := gin.H{
			"error":   appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		if development {
			body["detail"] = err.Error()
		}

		c.JSON(appErr.Status, body)
	}
}
