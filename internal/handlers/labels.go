package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/services"
)

type LabelHandler struct {
	db           *gorm.DB
	labelService services.LabelService
}

func NewLabelHandler(db *gorm.DB, labelService services.LabelService) *LabelHandler {
	return &LabelHandler{db: db, labelService: labelService}
}

type LabelInput struct {
	Name  string `json:"name" binding:"required,min=1,max=50"`
	Color string `json:"color"`
}

func (h *LabelHandler) CreateLabel(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	var input LabelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid label data",
			"details": err.Error(),
		})
		return
	}

	label, err := h.labelService.CreateLabel(h.db, ownerID, input.Name, input.Color)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"label": label})
}

func (h *LabelHandler) GetLabels(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	labels, err := h.labelService.GetLabels(h.db, ownerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": len(labels),
		"labels":  labels,
	})
}

// GetLabel runs behind the ownership guard; the id is known to exist and
// belong to the requester by the time we get here.
func (h *LabelHandler) GetLabel(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	label, err := h.labelService.GetLabelByID(h.db, id)
	if err != nil {
		handleLookupError(c, err, "label")
		return
	}

	c.JSON(http.StatusOK, gin.H{"label": label})
}

type LabelUpdateInput struct {
	Name  string `json:"name" binding:"omitempty,min=1,max=50"`
	Color string `json:"color"`
}

func (h *LabelHandler) UpdateLabel(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input LabelUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid label data",
			"details": err.Error(),
		})
		return
	}

	label, err := h.labelService.UpdateLabel(h.db, id, input.Name, input.Color)
	if err != nil {
		handleLookupError(c, err, "label")
		return
	}

	c.JSON(http.StatusOK, gin.H{"label": label})
}

func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	if err := h.labelService.DeleteLabel(h.db, id); err != nil {
		handleLookupError(c, err, "label")
		return
	}

	c.Status(http.StatusNoContent)
}

func handleLookupError(c *gin.Context, err error, resource string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No " + resource + " found with that ID",
		})
		return
	}
	c.Error(err)
}
