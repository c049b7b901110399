package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is used by infrastructure tables (jobs, settings) that
// only ever get referenced internally.
type BaseModel struct {
	ID        uint      `json:"id,omitempty" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// UUIDBaseModel is used by domain tables whose ids are handed out to
// clients and external services.
type UUIDBaseModel struct {
	ID        string    `json:"id,omitempty" gorm:"primarykey;size:36"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func (base *UUIDBaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}

	return nil
}
