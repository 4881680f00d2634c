package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLabelHandler(t *testing.T) (*gin.Engine, *gorm.DB, uuid.UUID) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Label{}, &models.Task{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	user := models.User{ID: uuid.Must(uuid.NewV4()), Name: "Owner", Email: "owner@example.com", Password: "hashed"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	handler := handlers.NewLabelHandler(db, services.NewLabelService())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, user.ID)
		c.Next()
	})
	router.POST("/labels", handler.CreateLabel)
	router.GET("/labels", handler.GetLabels)
	router.GET("/labels/:id", handler.GetLabel)
	router.PATCH("/labels/:id", handler.UpdateLabel)
	router.DELETE("/labels/:id", handler.DeleteLabel)

	return router, db, user.ID
}

func TestCreateLabel(t *testing.T) {
	router, _, _ := setupLabelHandler(t)

	body, _ := json.Marshal(gin.H{"name": "work", "color": "#ff0000"})
	req, _ := http.NewRequest("POST", "/labels", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var response map[string]models.Label
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["label"].Name != "work" {
		t.Errorf("Expected label name 'work', got %q", response["label"].Name)
	}
}

func TestCreateLabelMissingName(t *testing.T) {
	router, _, _ := setupLabelHandler(t)

	body, _ := json.Marshal(gin.H{"color": "#ff0000"})
	req, _ := http.NewRequest("POST", "/labels", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetLabels(t *testing.T) {
	router, db, ownerID := setupLabelHandler(t)

	for _, name := range []string{"beta", "alpha"} {
		label := models.Label{ID: uuid.Must(uuid.NewV4()), UserID: ownerID, Name: name, Color: "#000000"}
		if err := db.Create(&label).Error; err != nil {
			t.Fatalf("Failed to create label: %v", err)
		}
	}

	req, _ := http.NewRequest("GET", "/labels", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Results int            `json:"results"`
		Labels  []models.Label `json:"labels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Results != 2 {
		t.Errorf("Expected 2 labels, got %d", response.Results)
	}

	if response.Labels[0].Name != "alpha" {
		t.Errorf("Expected labels sorted by name, got %q first", response.Labels[0].Name)
	}
}

func TestUpdateLabel(t *testing.T) {
	router, db, ownerID := setupLabelHandler(t)

	label := models.Label{ID: uuid.Must(uuid.NewV4()), UserID: ownerID, Name: "old", Color: "#000000"}
	if err := db.Create(&label).Error; err != nil {
		t.Fatalf("Failed to create label: %v", err)
	}

	body, _ := json.Marshal(gin.H{"name": "new"})
	req, _ := http.NewRequest("PATCH", "/labels/"+label.ID.String(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var stored models.Label
	if err := db.First(&stored, "id = ?", label.ID).Error; err != nil {
		t.Fatalf("Failed to reload label: %v", err)
	}
	if stored.Name != "new" {
		t.Errorf("Expected stored name 'new', got %q", stored.Name)
	}
}

func TestDeleteLabel(t *testing.T) {
	router, db, ownerID := setupLabelHandler(t)

	label := models.Label{ID: uuid.Must(uuid.NewV4()), UserID: ownerID, Name: "doomed", Color: "#000000"}
	if err := db.Create(&label).Error; err != nil {
		t.Fatalf("Failed to create label: %v", err)
	}

	req, _ := http.NewRequest("DELETE", "/labels/"+label.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body on 204, got %q", w.Body.String())
	}

	var count int64
	db.Model(&models.Label{}).Where("id = ?", label.ID).Count(&count)
	if count != 0 {
		t.Error("Expected label to be deleted")
	}
}
