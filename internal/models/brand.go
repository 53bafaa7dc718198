package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Brand represents a product manufacturer
type Brand struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string       `json:"name" gorm:"not null;uniqueIndex"`
	Logo         string       `json:"logo"`
	Translations Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// TableName returns the table name for the Brand model
func (Brand) TableName() string {
	return "brands"
}

type BrandRequest struct {
	Name         string       `json:"name" binding:"required,max=255"`
	Logo         string       `json:"logo" binding:"omitempty,url"`
	Translations Translations `json:"additionalData"`
}
