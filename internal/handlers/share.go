package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/apperr"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/services"
)

type ShareHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	cfg         *config.Config
}

func NewShareHandler(db *gorm.DB, taskService services.TaskService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{db: db, taskService: taskService, cfg: cfg}
}

// GenerateTaskLink runs behind the ownership guard. Repeated calls return
// the same link.
func (h *ShareHandler) GenerateTaskLink(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	token, err := h.taskService.EnsureShareToken(h.db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sharedLink": fmt.Sprintf("%s/api/v1/tasks/share/%s", h.cfg.Server.BaseURL, token),
	})
}

// SharedTask is the only unauthenticated read in the API.
func (h *ShareHandler) SharedTask(c *gin.Context) {
	shared, err := h.taskService.ResolveShareToken(h.db, c.Param("token"))
	if err != nil {
		appErr := apperr.From(err)
		if appErr.Status == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   appErr.Code,
				"message": appErr.Message,
			})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": shared})
}
