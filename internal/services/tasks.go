package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/apperr"
	"taskboard/backend/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// reservedParams are control parameters, never treated as field filters.
var reservedParams = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
	"search": true,
	"labels": true,
}

// filterableFields are the task columns equality filters may target.
var filterableFields = map[string]bool{
	"status":   true,
	"priority": true,
}

type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	LabelIDs    []uuid.UUID
}

// TaskUpdate uses pointers so PATCH can distinguish "absent" from "zero".
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	LabelIDs    *[]uuid.UUID
}

type ListOptions struct {
	Page      string
	Limit     string
	Search    string
	LabelName string
	Filters   map[string]string
}

type TaskPage struct {
	Tasks []models.Task `json:"tasks"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

type LabelGroup struct {
	Label     models.Label  `json:"label"`
	Tasks     []models.Task `json:"tasks"`
	TaskCount int           `json:"task_count"`
}

// SharedTask is the unauthenticated read-only projection behind a share link.
// It deliberately carries no ids and no share token.
type SharedTask struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      string                `json:"status"`
	Priority    string                `json:"priority"`
	DueDate     time.Time             `json:"due_date"`
	Labels      []models.LabelSummary `json:"labels"`
	Owner       models.PublicProfile  `json:"owner"`
}

type TaskService interface {
	CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (*models.Task, error)
	GetTaskByID(db *gorm.DB, id uuid.UUID) (*models.Task, error)
	ListTasks(db *gorm.DB, ownerID uuid.UUID, opts ListOptions) (*TaskPage, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, ownerID uuid.UUID, update TaskUpdate) (*models.Task, error)
	DeleteTask(db *gorm.DB, id uuid.UUID) error
	GroupByLabels(db *gorm.DB, ownerID uuid.UUID) ([]LabelGroup, error)
	EnsureShareToken(db *gorm.DB, id uuid.UUID) (string, error)
	ResolveShareToken(db *gorm.DB, token string) (*SharedTask, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (*models.Task, error) {
	if input.Status == "" {
		input.Status = models.StatusPending
	}
	if input.Priority == "" {
		input.Priority = models.PriorityLow
	}
	dueDate := time.Now()
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	labels, err := s.validateLabelRefs(db, ownerID, input.LabelIDs)
	if err != nil {
		return nil, err
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     dueDate,
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}

	if len(labels) > 0 {
		if err := db.Model(&task).Association("Labels").Replace(labels); err != nil {
			return nil, err
		}
	}

	return s.GetTaskByID(db, task.ID)
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("Labels").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, ownerID uuid.UUID, opts ListOptions) (*TaskPage, error) {
	page := parsePositiveInt(opts.Page, defaultPage)
	limit := parsePositiveInt(opts.Limit, defaultLimit)
	skip := (page - 1) * limit

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("tasks.user_id = ?", ownerID)

		for field, value := range opts.Filters {
			if reservedParams[field] || !filterableFields[field] {
				continue
			}
			q = q.Where("tasks."+field+" = ?", value)
		}

		if opts.Search != "" {
			needle := "%" + strings.ToLower(opts.Search) + "%"
			q = q.Where("LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?", needle, needle)
		}

		return q
	}

	// A label name that resolves to nothing yields an empty page, not an error.
	if opts.LabelName != "" {
		var label models.Label
		err := db.Where("user_id = ? AND name = ?", ownerID, opts.LabelName).First(&label).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &TaskPage{Tasks: []models.Task{}, Page: page, Limit: limit, Total: 0}, nil
			}
			return nil, err
		}
		inner := scope
		scope = func(q *gorm.DB) *gorm.DB {
			return inner(q).
				Joins("JOIN task_labels ON task_labels.task_id = tasks.id").
				Where("task_labels.label_id = ?", label.ID)
		}
	}

	var total int64
	if err := scope(db.Model(&models.Task{})).Count(&total).Error; err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := scope(db.Model(&models.Task{})).
		Preload("Labels").
		Order("tasks.created_at desc").
		Offset(skip).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return &TaskPage{Tasks: tasks, Page: page, Limit: limit, Total: total}, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, ownerID uuid.UUID, update TaskUpdate) (*models.Task, error) {
	task, err := s.GetTaskByID(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.Priority != nil {
		updates["priority"] = *update.Priority
	}
	if update.DueDate != nil {
		updates["due_date"] = *update.DueDate
	}

	if len(updates) > 0 {
		if err := db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if update.LabelIDs != nil {
		labels, err := s.validateLabelRefs(db, ownerID, *update.LabelIDs)
		if err != nil {
			return nil, err
		}
		if err := db.Model(task).Association("Labels").Replace(labels); err != nil {
			return nil, err
		}
	}

	return s.GetTaskByID(db, id)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
}

// GroupByLabels groups the owner's tasks by each referenced label, one entry
// per label, ordered by label name.
func (s *TaskServiceImpl) GroupByLabels(db *gorm.DB, ownerID uuid.UUID) ([]LabelGroup, error) {
	var tasks []models.Task
	err := db.Preload("Labels").Where("user_id = ?", ownerID).Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	groups := make(map[uuid.UUID]*LabelGroup)
	for _, task := range tasks {
		for _, label := range task.Labels {
			group, ok := groups[label.ID]
			if !ok {
				group = &LabelGroup{Label: label}
				groups[label.ID] = group
			}
			group.Tasks = append(group.Tasks, task)
			group.TaskCount++
		}
	}

	result := make([]LabelGroup, 0, len(groups))
	for _, group := range groups {
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Label.Name < result[j].Label.Name
	})

	return result, nil
}

// EnsureShareToken is idempotent: an existing token is returned unchanged.
func (s *TaskServiceImpl) EnsureShareToken(db *gorm.DB, id uuid.UUID) (string, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return "", err
	}

	if task.ShareToken != nil && *task.ShareToken != "" {
		return *task.ShareToken, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	if err := db.Model(&task).Update("share_token", token).Error; err != nil {
		return "", err
	}

	return token, nil
}

func (s *TaskServiceImpl) ResolveShareToken(db *gorm.DB, token string) (*SharedTask, error) {
	var task models.Task
	err := db.Preload("Labels").Where("share_token = ?", token).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No task found for that link")
		}
		return nil, err
	}

	var owner models.User
	if err := db.First(&owner, "id = ?", task.UserID).Error; err != nil {
		return nil, err
	}

	return &SharedTask{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		Labels:      task.LabelSummaries(),
		Owner:       owner.Public(),
	}, nil
}

// validateLabelRefs requires every referenced label to exist and belong to
// the requesting user; violations enumerate the offending ids.
func (s *TaskServiceImpl) validateLabelRefs(db *gorm.DB, ownerID uuid.UUID, ids []uuid.UUID) ([]models.Label, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var owned []models.Label
	if err := db.Where("user_id = ?", ownerID).Find(&owned).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Label, len(owned))
	for _, label := range owned {
		byID[label.ID] = label
	}

	var labels []models.Label
	var invalid []string
	for _, id := range ids {
		if label, ok := byID[id]; ok {
			labels = append(labels, label)
		} else {
			invalid = append(invalid, id.String())
		}
	}

	if len(invalid) > 0 {
		return nil, apperr.Validation("Invalid label IDs: "+strings.Join(invalid, ", "), invalid...)
	}

	return labels, nil
}

// parsePositiveInt mirrors the lenient query parsing the API has always had:
// anything non-numeric or below 1 silently falls back to the default.
func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
