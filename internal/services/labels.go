package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/models"
)

// LabelService is the owner-scoped label store.
type LabelService interface {
	CreateLabel(db *gorm.DB, ownerID uuid.UUID, name, color string) (*models.Label, error)
	GetLabels(db *gorm.DB, ownerID uuid.UUID) ([]models.Label, error)
	GetLabelByID(db *gorm.DB, id uuid.UUID) (*models.Label, error)
	UpdateLabel(db *gorm.DB, id uuid.UUID, name, color string) (*models.Label, error)
	DeleteLabel(db *gorm.DB, id uuid.UUID) error
}

type LabelServiceImpl struct{}

func NewLabelService() *LabelServiceImpl {
	return &LabelServiceImpl{}
}

func (s *LabelServiceImpl) CreateLabel(db *gorm.DB, ownerID uuid.UUID, name, color string) (*models.Label, error) {
	if color == "" {
		color = "#000000"
	}
	label := models.Label{
		ID:     uuid.Must(uuid.NewV4()),
		UserID: ownerID,
		Name:   name,
		Color:  color,
	}
	if err := db.Create(&label).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

func (s *LabelServiceImpl) GetLabels(db *gorm.DB, ownerID uuid.UUID) ([]models.Label, error) {
	var labels []models.Label
	err := db.Where("user_id = ?", ownerID).Order("name asc").Find(&labels).Error
	return labels, err
}

func (s *LabelServiceImpl) GetLabelByID(db *gorm.DB, id uuid.UUID) (*models.Label, error) {
	var label models.Label
	if err := db.First(&label, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

func (s *LabelServiceImpl) UpdateLabel(db *gorm.DB, id uuid.UUID, name, color string) (*models.Label, error) {
	label, err := s.GetLabelByID(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if color != "" {
		updates["color"] = color
	}
	if len(updates) > 0 {
		if err := db.Model(label).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return label, nil
}

// DeleteLabel also clears task_labels rows so tasks are not left holding
// references to a label that no longer exists.
func (s *LabelServiceImpl) DeleteLabel(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE label_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Label{}, "id = ?", id).Error
	})
}
