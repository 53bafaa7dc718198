package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultTagColor = "#FF0000"

// Tag is a short colored label shown on product cards
type Tag struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Text         string       `json:"text" gorm:"size:10;not null;uniqueIndex"`
	FontColor    string       `json:"fontColor" gorm:"size:7;not null"`
	FillColor    string       `json:"fillColor" gorm:"size:7;not null"`
	Translations Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.FontColor == "" {
		t.FontColor = DefaultTagColor
	}
	if t.FillColor == "" {
		t.FillColor = DefaultTagColor
	}
	return nil
}

func (Tag) TableName() string {
	return "tags"
}

type TagRequest struct {
	Text         string       `json:"text" binding:"required,max=10"`
	FontColor    string       `json:"fontColor" binding:"omitempty,hexcolor6"`
	FillColor    string       `json:"fillColor" binding:"omitempty,hexcolor6"`
	Translations Translations `json:"additionalData"`
}

type TagView struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	FontColor string    `json:"fontColor"`
	FillColor string    `json:"fillColor"`
}

// ProductDescription is a titled markdown section of a product page
type ProductDescription struct {
	ID               uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID        uuid.UUID    `json:"productId" gorm:"type:uuid;not null;index"`
	Title            string       `json:"title" gorm:"not null"`
	Body             string       `json:"body" gorm:"type:text"`
	Translations     Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	BodyTranslations Translations `json:"bodyTranslations" gorm:"column:body_translations;type:jsonb"`
	Position         int          `json:"position" gorm:"not null;default:0"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (d *ProductDescription) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (ProductDescription) TableName() string {
	return "product_descriptions"
}

type DescriptionRequest struct {
	ProductID        uuid.UUID    `json:"productId" binding:"required"`
	Title            string       `json:"title" binding:"required,max=255"`
	Body             string       `json:"body"`
	Translations     Translations `json:"additionalData"`
	BodyTranslations Translations `json:"bodyTranslations"`
	Position         int          `json:"position"`
}

// DescriptionView is a translated description with the body rendered to HTML
type DescriptionView struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"bodyHtml"`
}

// Blog is an article that can reference products
type Blog struct {
	ID               uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string       `json:"title" gorm:"not null"`
	Body             string       `json:"body" gorm:"type:text"`
	Translations     Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	BodyTranslations Translations `json:"bodyTranslations" gorm:"column:body_translations;type:jsonb"`
	Products         []Product    `json:"products,omitempty" gorm:"many2many:blog_products"`
	CreatedAt        time.Time    `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (b *Blog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

func (Blog) TableName() string {
	return "blogs"
}

type BlogRequest struct {
	Title            string       `json:"title" binding:"required,max=255"`
	Body             string       `json:"body"`
	Translations     Translations `json:"additionalData"`
	BodyTranslations Translations `json:"bodyTranslations"`
	ProductIDs       []uuid.UUID  `json:"productIds"`
}

type BlogView struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	BodyHTML  string           `json:"bodyHtml,omitempty"`
	Products  []ProductSummary `json:"products,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// BannerImage is shown on top-level category pages
type BannerImage struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `json:"categoryId" gorm:"type:uuid;not null;index"`
	ImageURL   string    `json:"imageUrl" gorm:"not null"`
	Link       string    `json:"link"`
	Position   int       `json:"position" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (b *BannerImage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

func (BannerImage) TableName() string {
	return "banner_images"
}

type BannerRequest struct {
	CategoryID uuid.UUID `json:"categoryId" binding:"required"`
	ImageURL   string    `json:"imageUrl" binding:"required,url"`
	Link       string    `json:"link"`
	Position   int       `json:"position"`
}

// Service is an add-on (installation, assembly) offered in some cities
type Service struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	Cities      []City          `json:"cities,omitempty" gorm:"many2many:service_cities"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (Service) TableName() string {
	return "services"
}

type ServiceRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CityIDs     []uuid.UUID     `json:"cityIds"`
}
