package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Status      string    `json:"status" gorm:"not null;default:'pending'"`
	Priority    string    `json:"priority" gorm:"not null;default:'low'"`
	DueDate     time.Time `json:"due_date"`
	ShareToken  *string   `json:"-" gorm:"uniqueIndex"`

	Labels []Label `json:"labels,omitempty" gorm:"many2many:task_labels;"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Task) OwnerID() uuid.UUID {
	return t.UserID
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func (t *Task) LabelSummaries() []LabelSummary {
	summaries := make([]LabelSummary, 0, len(t.Labels))
	for _, label := range t.Labels {
		summaries = append(summaries, label.Summary())
	}
	return summaries
}
