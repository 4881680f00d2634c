package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"taskboard/backend/internal/apperr"
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")

// UserService owns user records, password hashing and the reset-token lifecycle.
type UserService interface {
	Register(db *gorm.DB, name, email, password string) (*models.User, error)
	Authenticate(db *gorm.DB, email, password string) (*models.User, error)
	GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	GetByEmail(db *gorm.DB, email string) (*models.User, error)
	IssueResetToken(db *gorm.DB, user *models.User) (string, error)
	ClearResetToken(db *gorm.DB, user *models.User) error
	ConsumeResetToken(db *gorm.DB, rawToken, newPassword string) (*models.User, error)
	DeleteAccount(db *gorm.DB, user *models.User, password string) error
}

type UserServiceImpl struct {
	bcryptCost    int
	resetTokenTTL time.Duration
}

func NewUserService(bcryptCost int, resetTokenTTL time.Duration) *UserServiceImpl {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	if resetTokenTTL == 0 {
		resetTokenTTL = 10 * time.Minute
	}
	return &UserServiceImpl{bcryptCost: bcryptCost, resetTokenTTL: resetTokenTTL}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *UserServiceImpl) Register(db *gorm.DB, name, email, password string) (*models.User, error) {
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, apperr.Conflict("An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Image:    "default.jpeg",
	}

	if err := db.Create(&user).Error; err != nil {
		// The pre-check races with concurrent registrations; the unique
		// constraint is the real arbiter.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("An account with this email already exists")
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserServiceImpl) Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserServiceImpl) GetByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IssueResetToken stores only the digest of the generated token; the raw
// value goes to the user and is never persisted.
func (s *UserServiceImpl) IssueResetToken(db *gorm.DB, user *models.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	rawToken := hex.EncodeToString(raw)

	digest := hashResetToken(rawToken)
	expires := time.Now().Add(s.resetTokenTTL)

	err := db.Model(user).Updates(map[string]interface{}{
		"password_reset_token":   digest,
		"password_reset_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}

	user.PasswordResetToken = &digest
	user.PasswordResetExpires = &expires

	return rawToken, nil
}

// ClearResetToken rolls the reset fields back so a failed mail delivery
// does not leave a live token behind.
func (s *UserServiceImpl) ClearResetToken(db *gorm.DB, user *models.User) error {
	err := db.Model(user).Updates(map[string]interface{}{
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	}).Error
	if err != nil {
		return err
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return nil
}

// ConsumeResetToken fails with the same error for an unknown and an expired
// token so the response leaks nothing about which condition held.
func (s *UserServiceImpl) ConsumeResetToken(db *gorm.DB, rawToken, newPassword string) (*models.User, error) {
	digest := hashResetToken(rawToken)

	var user models.User
	err := db.Where("password_reset_token = ? AND password_reset_expires > ?", digest, time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("Token is invalid or has expired")
		}
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.Model(&user).Updates(map[string]interface{}{
		"password":               string(hashed),
		"password_reset_token":   nil,
		"password_reset_expires": nil,
		"password_changed_at":    now,
	}).Error
	if err != nil {
		return nil, err
	}

	user.Password = string(hashed)
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	user.PasswordChangedAt = &now

	return &user, nil
}

// DeleteAccount removes the user together with owned tasks, labels and the
// task_labels rows referencing them.
func (s *UserServiceImpl) DeleteAccount(db *gorm.DB, user *models.User, password string) error {
	if !VerifyPassword(user.Password, password) {
		return ErrInvalidCredentials
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_labels WHERE task_id IN (SELECT id FROM tasks WHERE user_id = ?)",
			user.ID,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Label{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

func hashResetToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
