package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxReviewLength = 2000
	DefaultRating   = 5
)

// Review is a customer review of a product. Only moderated reviews are public.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Product    *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Text       string    `json:"text" gorm:"type:text;not null;uniqueIndex"`
	Moderation bool      `json:"moderation" gorm:"not null;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (Review) TableName() string {
	return "reviews"
}

// CreateReviewRequest is the storefront payload for a new review. Rating
// defaults to 5 when omitted.
type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Rating    *int      `json:"rating" binding:"omitempty,min=0,max=5"`
	Text      string    `json:"text" binding:"required,max=2000"`
}

type ModerateReviewRequest struct {
	Moderation bool `json:"moderation"`
}
