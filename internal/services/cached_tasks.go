package services

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/models"
)

// CachedTaskService decorates TaskService with read-through caching.
// Mutations invalidate the task, the owner's list pages and any cached
// share-link resolution.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{taskService: taskService, cache: cacheInstance}
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id.String())
}

func listPattern(ownerID uuid.UUID) string {
	return fmt.Sprintf("tasks_page:%s:*", ownerID.String())
}

func shareKey(token string) string {
	return fmt.Sprintf("share:%s", token)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, ownerID uuid.UUID, input TaskInput) (*models.Task, error) {
	task, err := s.taskService.CreateTask(db, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.cache.Set(taskKey(task.ID), task, 30*time.Minute)
	s.cache.DeletePattern(listPattern(ownerID))

	return task, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskKey(id), &cached); err == nil {
		return &cached, nil
	}

	task, err := s.taskService.GetTaskByID(db, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(taskKey(id), task, 30*time.Minute)

	return task, nil
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, ownerID uuid.UUID, opts ListOptions) (*TaskPage, error) {
	cacheKey := fmt.Sprintf("tasks_page:%s:%s:%s:%s:%s:%v",
		ownerID.String(), opts.Page, opts.Limit, opts.Search, opts.LabelName, opts.Filters)

	var cached TaskPage
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	page, err := s.taskService.ListTasks(db, ownerID, opts)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, page, 5*time.Minute)

	return page, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, ownerID uuid.UUID, update TaskUpdate) (*models.Task, error) {
	task, err := s.taskService.UpdateTask(db, id, ownerID, update)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(taskKey(id))
	s.cache.DeletePattern(listPattern(ownerID))
	if task.ShareToken != nil {
		s.cache.Delete(shareKey(*task.ShareToken))
	}

	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	task, getErr := s.taskService.GetTaskByID(db, id)

	if err := s.taskService.DeleteTask(db, id); err != nil {
		return err
	}

	s.cache.Delete(taskKey(id))
	if getErr == nil {
		s.cache.DeletePattern(listPattern(task.UserID))
		if task.ShareToken != nil {
			s.cache.Delete(shareKey(*task.ShareToken))
		}
	}

	return nil
}

func (s *CachedTaskService) GroupByLabels(db *gorm.DB, ownerID uuid.UUID) ([]LabelGroup, error) {
	return s.taskService.GroupByLabels(db, ownerID)
}

func (s *CachedTaskService) EnsureShareToken(db *gorm.DB, id uuid.UUID) (string, error) {
	return s.taskService.EnsureShareToken(db, id)
}

func (s *CachedTaskService) ResolveShareToken(db *gorm.DB, token string) (*SharedTask, error) {
	var cached SharedTask
	if err := s.cache.Get(shareKey(token), &cached); err == nil {
		return &cached, nil
	}

	shared, err := s.taskService.ResolveShareToken(db, token)
	if err != nil {
		return nil, err
	}

	s.cache.Set(shareKey(token), shared, 10*time.Minute)

	return shared, nil
}
