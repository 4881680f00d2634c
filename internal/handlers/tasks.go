package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/apperr"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"
)

// ReminderScheduler queues a due-date reminder mail for a task owner.
type ReminderScheduler interface {
	EnqueueDueReminder(ctx context.Context, email, title string, due time.Time) error
}

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	reminders   ReminderScheduler
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, reminders ReminderScheduler) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, reminders: reminders}
}

type TaskCreateInput struct {
	Title       string     `json:"title" binding:"required,min=1,max=100"`
	Description string     `json:"description" binding:"max=500"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Labels      []string   `json:"labels"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	var input TaskCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid task data",
			"details": err.Error(),
		})
		return
	}

	labelIDs, invalid := parseLabelIDs(input.Labels)
	if len(invalid) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Each label must be a valid ID",
			"fields":  invalid,
		})
		return
	}

	task, err := h.taskService.CreateTask(h.db, ownerID, services.TaskInput{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		LabelIDs:    labelIDs,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	if h.reminders != nil && task.DueDate.After(time.Now()) {
		if user, ok := currentUser(c); ok {
			if err := h.reminders.EnqueueDueReminder(c.Request.Context(), user.Email, task.Title, task.DueDate); err != nil {
				log.Printf("failed to enqueue due reminder for task %s: %v", task.ID, err)
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"task": taskResponse(task)})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	page, err := h.taskService.ListTasks(h.db, ownerID, services.ListOptions{
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
		Search:    c.Query("search"),
		LabelName: c.Query("labels"),
		Filters:   filters,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	tasks := make([]gin.H, 0, len(page.Tasks))
	for i := range page.Tasks {
		tasks = append(tasks, taskResponse(&page.Tasks[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"page":    page.Page,
		"limit":   page.Limit,
		"total":   page.Total,
		"results": len(tasks),
		"tasks":   tasks,
	})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	task, err := h.taskService.GetTaskByID(h.db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": taskResponse(task)})
}

type TaskUpdateInput struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Labels      *[]string  `json:"labels"`
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	id := uuid.FromStringOrNil(c.Param("id"))

	var input TaskUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid task data",
			"details": err.Error(),
		})
		return
	}

	update := services.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}

	if input.Labels != nil {
		labelIDs, invalid := parseLabelIDs(*input.Labels)
		if len(invalid) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_failed",
				"message": "Each label must be a valid ID",
				"fields":  invalid,
			})
			return
		}
		update.LabelIDs = &labelIDs
	}

	task, err := h.taskService.UpdateTask(h.db, id, ownerID, update)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": taskResponse(task)})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	if err := h.taskService.DeleteTask(h.db, id); err != nil {
		handleTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) GroupByLabels(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "User not authenticated"})
		return
	}

	groups, err := h.taskService.GroupByLabels(h.db, ownerID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": len(groups),
		"groups":  groups,
	})
}

// taskResponse embeds the label projection the original API exposed on
// task payloads (name and color only).
func taskResponse(task *models.Task) gin.H {
	return gin.H{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"due_date":    task.DueDate,
		"labels":      task.LabelSummaries(),
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	}
}

func parseLabelIDs(raw []string) ([]uuid.UUID, []string) {
	var ids []uuid.UUID
	var invalid []string
	for _, value := range raw {
		id, err := uuid.FromString(value)
		if err != nil {
			invalid = append(invalid, value)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

func handleTaskError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No task found with that ID",
		})
		return
	}

	appErr := apperr.From(err)
	if appErr.Status == http.StatusBadRequest {
		body := gin.H{
			"error":   appErr.Code,
			"message": appErr.Message,
		}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	c.Error(err)
}
