package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrustedContact is a phone contact a user designates to be notified
// during an incident. Phone uniqueness is enforced per user, not
// globally - the same phone can back two different users.
type TrustedContact struct {
	UUIDBaseModel
	ExternalID string `json:"external_id" gorm:"not null;size:36"`
	Name       string `json:"name" gorm:"not null"`
	Phone      string `json:"phone" gorm:"not null;uniqueIndex:idx_trusted_contacts_user_phone"`
	SnsTopic   string `json:"sns_topic,omitempty"`
	UserID     string `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_trusted_contacts_user_phone"`
}

func (contact *TrustedContact) BeforeCreate(tx *gorm.DB) error {
	if err := contact.UUIDBaseModel.BeforeCreate(tx); err != nil {
		return err
	}

	if contact.ExternalID == "" {
		contact.ExternalID = uuid.NewString()
	}

	return nil
}

// FindContact looks up a user's contact by its normalized phone number.
func FindContact(userID string, phone string) (*TrustedContact, error) {
	contact := TrustedContact{}
	err := db.First(&contact, "user_id = ? AND phone = ?", userID, phone).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func FindContactByID(id string) (*TrustedContact, error) {
	contact := TrustedContact{}
	err := db.First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func ContactExists(userID string, phone string) (bool, error) {
	err := db.First(&TrustedContact{}, "user_id = ? AND phone = ?", userID, phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ContactsMissingSnsTopic returns contacts whose registration with the
// notification service hasn't completed yet.
func ContactsMissingSnsTopic() ([]TrustedContact, error) {
	contacts := []TrustedContact{}
	err := db.Find(&contacts, "sns_topic = ? OR sns_topic IS NULL", "").Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func (contact *TrustedContact) Update(data map[string]interface{}) error {
	return db.Model(&TrustedContact{}).
		Where("id = ? AND user_id = ?", contact.ID, contact.UserID).
		Select([]string{"name", "phone"}).Updates(data).Error
}

func (contact *TrustedContact) SetSnsTopic(topic string) error {
	return db.Model(&TrustedContact{}).Where("id = ?", contact.ID).
		Update("sns_topic", topic).Error
}

func (contact *TrustedContact) Delete() error {
	return db.Where("user_id = ?", contact.UserID).
		Delete(&TrustedContact{}, "id = ?", contact.ID).Error
}
