package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Label struct {
	ID     uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Name   string    `json:"name" gorm:"not null"`
	Color  string    `json:"color" gorm:"not null;default:'#000000'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Label) OwnerID() uuid.UUID {
	return l.UserID
}

// LabelSummary is the projection embedded in task responses and shared views.
type LabelSummary struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (l *Label) Summary() LabelSummary {
	return LabelSummary{Name: l.Name, Color: l.Color}
}
