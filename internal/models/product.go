package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog product
type Product struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string       `json:"name" gorm:"not null"`
	VendorCode     string       `json:"vendorCode" gorm:"not null;uniqueIndex"`
	Slug           string       `json:"slug" gorm:"not null;uniqueIndex"`
	Translations   Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CategoryID     *uuid.UUID   `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Category       *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	BrandID        *uuid.UUID   `json:"brandId,omitempty" gorm:"type:uuid;index"`
	Brand          *Brand       `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Images         StringList   `json:"images" gorm:"type:jsonb"`
	Tags           []Tag        `json:"tags,omitempty" gorm:"many2many:product_tags"`
	Related        []Product    `json:"related,omitempty" gorm:"many2many:product_related;joinForeignKey:ProductID;joinReferences:RelatedID"`
	Configurations []Product    `json:"configurations,omitempty" gorm:"many2many:product_configurations;joinForeignKey:ProductID;joinReferences:ConfigurationID"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// ProductSort enumerates the accepted sort keys for product lists
var ProductSort = map[string]string{
	"name":     "products.name ASC",
	"-name":    "products.name DESC",
	"created":  "products.created_at ASC",
	"-created": "products.created_at DESC",
	"price":    "min_price ASC",
	"-price":   "min_price DESC",
}

// ProductFilter carries the parsed query of a product list request
type ProductFilter struct {
	BrandIDs     []uuid.UUID
	CategoryPath string
	Specs        []SpecFilter
	Price        *PriceRange
	CityID       *uuid.UUID
	TagID        *uuid.UUID
	Search       string
	IDs          []uuid.UUID
	Sort         string
	Limit        int
	Offset       int
}

// SpecFilter matches products having specification Name with any of Values
type SpecFilter struct {
	Name   string
	Values []string
}

// PriceRange bounds a price filter; nil ends are open
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// CreateProductRequest is the admin payload for new products
type CreateProductRequest struct {
	Name             string       `json:"name" binding:"required,max=255"`
	VendorCode       string       `json:"vendorCode" binding:"required,max=100"`
	Slug             string       `json:"slug" binding:"omitempty,slug"`
	Translations     Translations `json:"additionalData"`
	CategoryID       *uuid.UUID   `json:"categoryId"`
	BrandID          *uuid.UUID   `json:"brandId"`
	Images           []string     `json:"images"`
	TagIDs           []uuid.UUID  `json:"tagIds"`
	RelatedIDs       []uuid.UUID  `json:"relatedIds"`
	ConfigurationIDs []uuid.UUID  `json:"configurationIds"`
}

// UpdateProductRequest is the admin payload for product updates
type UpdateProductRequest struct {
	Name             *string      `json:"name" binding:"omitempty,max=255"`
	VendorCode       *string      `json:"vendorCode" binding:"omitempty,max=100"`
	Slug             *string      `json:"slug" binding:"omitempty,slug"`
	Translations     Translations `json:"additionalData"`
	CategoryID       *uuid.UUID   `json:"categoryId"`
	BrandID          *uuid.UUID   `json:"brandId"`
	Images           []string     `json:"images"`
	TagIDs           []uuid.UUID  `json:"tagIds"`
	RelatedIDs       []uuid.UUID  `json:"relatedIds"`
	ConfigurationIDs []uuid.UUID  `json:"configurationIds"`
}

// ProductSummary is the storefront list representation of a product
type ProductSummary struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Slug                string           `json:"slug"`
	VendorCode          string           `json:"vendorCode"`
	Images              []string         `json:"images"`
	CategoryID          *uuid.UUID       `json:"categoryId,omitempty"`
	BrandID             *uuid.UUID       `json:"brandId,omitempty"`
	Tags                []TagView        `json:"tags,omitempty"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	PriceBeforeDiscount *decimal.Decimal `json:"priceBeforeDiscount,omitempty"`
	DiscountAmount      *decimal.Decimal `json:"discountAmount,omitempty"`
	AverageRating       float64          `json:"averageRating"`
	ReviewCount         int64            `json:"reviewCount"`
}

// ProductDetail is the storefront detail representation of a product
type ProductDetail struct {
	ProductSummary
	Category       *CategoryRef        `json:"category,omitempty"`
	Brand          *BrandRef           `json:"brand,omitempty"`
	Specifications []SpecificationView `json:"specifications"`
	Related        []ProductSummary    `json:"related"`
	Configurations []ProductSummary    `json:"configurations"`
	Descriptions   []DescriptionView   `json:"descriptions"`
	Stocks         []CityOffers        `json:"stocks"`
	Translations   Translations        `json:"additionalData,omitempty"`
	Breadcrumbs    []CategoryRef       `json:"breadcrumbs,omitempty"`
}

// CategoryRef is a lightweight category reference
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// BrandRef is a lightweight brand reference
type BrandRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Logo string    `json:"logo,omitempty"`
}

// RatingStats aggregates moderated reviews of a product
type RatingStats struct {
	ProductID     uuid.UUID `json:"productId"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int64     `json:"reviewCount"`
}
