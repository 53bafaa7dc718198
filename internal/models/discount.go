package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountLevel is the scope a discount was resolved from
type DiscountLevel string

const (
	DiscountLevelProduct  DiscountLevel = "product"
	DiscountLevelCategory DiscountLevel = "category"
	DiscountLevelBrand    DiscountLevel = "brand"
)

// Discount is a percentage reduction applied to products directly, to
// categories (with their subtrees) or to brands.
type Discount struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(5,2);not null"`
	Active      bool            `json:"active" gorm:"not null;index"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	EndDate     *time.Time      `json:"endDate,omitempty" gorm:"index"`
	Products    []Product       `json:"products,omitempty" gorm:"many2many:discount_products"`
	Categories  []Category      `json:"categories,omitempty" gorm:"many2many:discount_categories"`
	Brands      []Brand         `json:"brands,omitempty" gorm:"many2many:discount_brands"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (d *Discount) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (Discount) TableName() string {
	return "discounts"
}

// IsValid reports whether the discount is active and now falls inside its window.
func (d *Discount) IsValid(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// IsExpired reports whether the discount window has closed.
func (d *Discount) IsExpired(now time.Time) bool {
	return d.EndDate != nil && now.After(*d.EndDate)
}

type DiscountRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Active      bool            `json:"active"`
	StartDate   *time.Time      `json:"startDate"`
	EndDate     *time.Time      `json:"endDate"`
	ProductIDs  []uuid.UUID     `json:"productIds"`
	CategoryIDs []uuid.UUID     `json:"categoryIds"`
	BrandIDs    []uuid.UUID     `json:"brandIds"`
}

// AppliedDiscount describes the discount chosen for a price
type AppliedDiscount struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Level  DiscountLevel   `json:"level"`
}

// PriceQuote is a base price with the resolved discount applied
type PriceQuote struct {
	Price               decimal.Decimal  `json:"price"`
	PriceBeforeDiscount *decimal.Decimal `json:"priceBeforeDiscount,omitempty"`
	Discount            *AppliedDiscount `json:"discount,omitempty"`
}
