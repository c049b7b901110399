package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/panic-app/panic-server/server/auth"
	"gorm.io/gorm"
)

type User struct {
	UUIDBaseModel
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	PhoneNumber  string           `json:"phone_number"`
	Email        string           `json:"email" gorm:"not null;index"`
	PasswordHash string           `json:"-" gorm:"not null"`
	Disabled     bool             `json:"disabled" gorm:"default:false"`
	DisabledAt   *time.Time       `json:"disabled_at,omitempty"`
	Contacts     []TrustedContact `json:"contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Incidents    []Incident       `json:"incidents,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// CreateUser hashes the given plain-text password & persists the user.
func CreateUser(user *User, password string) error {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash

	return db.Create(user).Error
}

// FindActiveUserByEmail looks up a non-disabled user by exact email match.
// Disabled accounts are skipped, which frees their email for re-registration
// while keeping the stored value intact.
func FindActiveUserByEmail(email string) (*User, error) {
	user := User{}
	err := db.First(&user, "email = ? AND disabled = ?", email, false).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := db.First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func ActiveEmailExists(email string) (bool, error) {
	err := db.First(&User{}, "email = ? AND disabled = ?", email, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Authenticate checks password against the stored bcrypt hash.
func (user *User) Authenticate(password string) bool {
	return auth.CheckPasswordHash(password, user.PasswordHash)
}

func (user *User) UpdatePassword(newPassword string) error {
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return db.Model(&User{}).Where("id = ?", user.ID).
		Update("password_hash", passwordHash).Error
}

// Deactivate flags the account as disabled. The email column is left
// untouched so the original value survives for audit.
func (user *User) Deactivate() error {
	now := time.Now()
	return db.Model(&User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"disabled":    true,
		"disabled_at": &now,
	}).Error
}

func (user *User) AddContact(contact *TrustedContact) error {
	contact.UserID = user.ID
	return db.Create(contact).Error
}

func (user *User) LoadContacts() error {
	// TODO: Add pagination
	return db.Limit(500).Order("created_at").Find(&user.Contacts, "user_id = ?", user.ID).Error
}
