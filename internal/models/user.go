package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name     string    `json:"name" gorm:"not null"`
	Email    string    `json:"email" gorm:"unique;not null"`
	Password string    `json:"-" gorm:"not null"`
	Image    string    `json:"image" gorm:"default:'default.jpeg'"`

	// Reset tokens are stored as SHA-256 digests, never in raw form.
	PasswordResetToken   *string    `json:"-" gorm:"index"`
	PasswordResetExpires *time.Time `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks  []Task  `json:"tasks,omitempty" gorm:"foreignKey:UserID"`
	Labels []Label `json:"labels,omitempty" gorm:"foreignKey:UserID"`
}

// PublicProfile is the restricted owner projection exposed on shared tasks.
type PublicProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{Name: u.Name, Email: u.Email, Image: u.Image}
}

// IssuedBeforePasswordChange reports whether a session issued at the given
// time predates the user's most recent password change.
func (u *User) IssuedBeforePasswordChange(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// JWT iat has second granularity, compare at the same resolution.
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
