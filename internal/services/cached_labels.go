package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/models"
)

// CachedLabelService decorates LabelService so label mutations invalidate
// the cached tasks that embed the label's name and color. Without it a
// rename or delete would keep serving the old label from cached task pages
// until the TTL ran out.
type CachedLabelService struct {
	labelService LabelService
	cache        *cache.RedisCache
}

func NewCachedLabelService(labelService LabelService, cacheInstance *cache.RedisCache) *CachedLabelService {
	return &CachedLabelService{labelService: labelService, cache: cacheInstance}
}

func (s *CachedLabelService) CreateLabel(db *gorm.DB, ownerID uuid.UUID, name, color string) (*models.Label, error) {
	// A new label is not referenced by any task yet; nothing cached is stale.
	return s.labelService.CreateLabel(db, ownerID, name, color)
}

func (s *CachedLabelService) GetLabels(db *gorm.DB, ownerID uuid.UUID) ([]models.Label, error) {
	return s.labelService.GetLabels(db, ownerID)
}

func (s *CachedLabelService) GetLabelByID(db *gorm.DB, id uuid.UUID) (*models.Label, error) {
	return s.labelService.GetLabelByID(db, id)
}

func (s *CachedLabelService) UpdateLabel(db *gorm.DB, id uuid.UUID, name, color string) (*models.Label, error) {
	label, err := s.labelService.UpdateLabel(db, id, name, color)
	if err != nil {
		return nil, err
	}

	s.invalidateTasks(tasksWithLabel(db, id))
	s.cache.DeletePattern(listPattern(label.UserID))

	return label, nil
}

func (s *CachedLabelService) DeleteLabel(db *gorm.DB, id uuid.UUID) error {
	// Collect the affected tasks before the delete clears the join rows.
	label, lookupErr := s.labelService.GetLabelByID(db, id)
	tasks := tasksWithLabel(db, id)

	if err := s.labelService.DeleteLabel(db, id); err != nil {
		return err
	}

	s.invalidateTasks(tasks)
	if lookupErr == nil {
		s.cache.DeletePattern(listPattern(label.UserID))
	}

	return nil
}

func (s *CachedLabelService) invalidateTasks(tasks []models.Task) {
	for _, task := range tasks {
		s.cache.Delete(taskKey(task.ID))
		if task.ShareToken != nil {
			s.cache.Delete(shareKey(*task.ShareToken))
		}
	}
}

func tasksWithLabel(db *gorm.DB, labelID uuid.UUID) []models.Task {
	var tasks []models.Task
	db.Joins("JOIN task_labels ON task_labels.task_id = tasks.id").
		Where("task_labels.label_id = ?", labelID).
		Find(&tasks)
	return tasks
}
