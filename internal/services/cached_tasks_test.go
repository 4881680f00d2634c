package services_test

import (
	"testing"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCachedTaskService(t *testing.T) (*services.CachedTaskService, *gorm.DB, *miniredis.Miniredis) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Label{}, &models.Task{}))

	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCache(&cache.CacheConfig{Addr: mr.Addr()})

	return services.NewCachedTaskService(services.NewTaskService(), redisCache), db, mr
}

func createCacheTestUser(t *testing.T, db *gorm.DB) *models.User {
	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     "Cache User",
		Email:    "cache@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestCachedTaskService_ReadThrough(t *testing.T) {
	service, db, mr := setupCachedTaskService(t)
	defer mr.Close()
	user := createCacheTestUser(t, db)

	task, err := service.CreateTask(db, user.ID, services.TaskInput{Title: "cached"})
	require.NoError(t, err)

	// First read warms the cache, so a direct DB edit behind the cache's
	// back is not visible until invalidation.
	first, err := service.GetTaskByID(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", first.Title)

	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Update("title", "edited directly").Error)

	stale, err := service.GetTaskByID(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", stale.Title)
}

func TestCachedTaskService_UpdateInvalidates(t *testing.T) {
	service, db, mr := setupCachedTaskService(t)
	defer mr.Close()
	user := createCacheTestUser(t, db)

	task, err := service.CreateTask(db, user.ID, services.TaskInput{Title: "before"})
	require.NoError(t, err)

	_, err = service.GetTaskByID(db, task.ID)
	require.NoError(t, err)

	newTitle := "after"
	_, err = service.UpdateTask(db, task.ID, user.ID, services.TaskUpdate{Title: &newTitle})
	require.NoError(t, err)

	fresh, err := service.GetTaskByID(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", fresh.Title)
}

func TestCachedTaskService_ListInvalidatedByCreate(t *testing.T) {
	service, db, mr := setupCachedTaskService(t)
	defer mr.Close()
	user := createCacheTestUser(t, db)

	_, err := service.CreateTask(db, user.ID, services.TaskInput{Title: "one"})
	require.NoError(t, err)

	page, err := service.ListTasks(db, user.ID, services.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = service.CreateTask(db, user.ID, services.TaskInput{Title: "two"})
	require.NoError(t, err)

	page, err = service.ListTasks(db, user.ID, services.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total, "creating a task should invalidate cached list pages")
}

func TestCachedTaskService_DeleteRemovesTask(t *testing.T) {
	service, db, mr := setupCachedTaskService(t)
	defer mr.Close()
	user := createCacheTestUser(t, db)

	task, err := service.CreateTask(db, user.ID, services.TaskInput{Title: "doomed"})
	require.NoError(t, err)

	_, err = service.GetTaskByID(db, task.ID)
	require.NoError(t, err)

	require.NoError(t, service.DeleteTask(db, task.ID))

	_, err = service.GetTaskByID(db, task.ID)
	assert.Error(t, err, "deleted task must not be served from cache")
}

func TestCachedTaskService_ShareResolutionCached(t *testing.T) {
	service, db, mr := setupCachedTaskService(t)
	defer mr.Close()
	user := createCacheTestUser(t, db)

	task, err := service.CreateTask(db, user.ID, services.TaskInput{Title: "shared"})
	require.NoError(t, err)

	token, err := service.EnsureShareToken(db, task.ID)
	require.NoError(t, err)

	shared, err := service.ResolveShareToken(db, token)
	require.NoError(t, err)
	assert.Equal(t, "shared", shared.Title)

	exists := mr.Exists("share:" + token)
	assert.True(t, exists, "resolved share view should be cached")
}
