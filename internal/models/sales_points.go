package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// City is a delivery location
type City struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string       `json:"name" gorm:"not null;uniqueIndex"`
	Translations Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (c *City) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (City) TableName() string {
	return "cities"
}

// Warehouse holds stock in a city. ExternalID is the key used by the ERP feed.
type Warehouse struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ExternalID string    `json:"externalId" gorm:"index"`
	Name       string    `json:"name" gorm:"not null;uniqueIndex"`
	CityID     uuid.UUID `json:"cityId" gorm:"type:uuid;not null;index"`
	City       *City     `json:"city,omitempty" gorm:"foreignKey:CityID"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

func (Warehouse) TableName() string {
	return "warehouses"
}

// Stock is the quantity and price of a product in one warehouse
type Stock struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	WarehouseID uuid.UUID       `json:"warehouseId" gorm:"type:uuid;not null;uniqueIndex:idx_stocks_warehouse_product"`
	Warehouse   *Warehouse      `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
	ProductID   uuid.UUID       `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_stocks_warehouse_product;index"`
	Product     *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity    int             `json:"quantity" gorm:"not null;default:0"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (s *Stock) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (Stock) TableName() string {
	return "stocks"
}

// Edge makes products of a category (and its subtree) or a brand available
// in CityToID from stock held in CityFromID.
type Edge struct {
	ID                    uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	CityFromID            uuid.UUID       `json:"cityFromId" gorm:"type:uuid;not null;index"`
	CityFrom              *City           `json:"cityFrom,omitempty" gorm:"foreignKey:CityFromID"`
	CityToID              uuid.UUID       `json:"cityToId" gorm:"type:uuid;not null;index"`
	CityTo                *City           `json:"cityTo,omitempty" gorm:"foreignKey:CityToID"`
	CategoryID            *uuid.UUID      `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	BrandID               *uuid.UUID      `json:"brandId,omitempty" gorm:"type:uuid;index"`
	TransportationCost    decimal.Decimal `json:"transportationCost" gorm:"type:numeric(12,2);not null;default:0"`
	EstimatedDeliveryDays int             `json:"estimatedDeliveryDays" gorm:"not null;default:0"`
	IsActive              bool            `json:"isActive" gorm:"not null"`
	ExpirationDate        *time.Time      `json:"expirationDate,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (e *Edge) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (Edge) TableName() string {
	return "edges"
}

// IsValid reports whether the edge is active and not expired at now.
func (e *Edge) IsValid(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return e.ExpirationDate == nil || now.Before(*e.ExpirationDate)
}

// ProductScope is what an edge or discount is matched against
type ProductScope struct {
	ProductID    uuid.UUID
	CategoryID   *uuid.UUID
	CategoryPath string
	BrandID      *uuid.UUID
}

// CategoryIDs returns the product category and its ancestors, nearest first.
func (s ProductScope) CategoryIDs() []uuid.UUID {
	if s.CategoryPath == "" {
		if s.CategoryID != nil {
			return []uuid.UUID{*s.CategoryID}
		}
		return nil
	}
	c := Category{Path: s.CategoryPath}
	return c.AncestorIDs()
}

// Matches reports whether the edge scope covers the product.
func (e *Edge) Matches(scope ProductScope) bool {
	if e.BrandID != nil && scope.BrandID != nil && *e.BrandID == *scope.BrandID {
		return true
	}
	if e.CategoryID != nil {
		for _, id := range scope.CategoryIDs() {
			if id == *e.CategoryID {
				return true
			}
		}
	}
	return false
}

// StockSource distinguishes physical stock from edge-derived availability
type StockSource string

const (
	StockSourceWarehouse StockSource = "warehouse"
	StockSourceEdge      StockSource = "edge"
)

// StockOffer is one priced availability of a product in a city
type StockOffer struct {
	StockID               *uuid.UUID       `json:"stockId,omitempty"`
	CityID                uuid.UUID        `json:"cityId"`
	CityName              string           `json:"cityName"`
	WarehouseID           uuid.UUID        `json:"warehouseId"`
	WarehouseName         string           `json:"warehouseName"`
	Quantity              int              `json:"quantity"`
	Price                 decimal.Decimal  `json:"price"`
	PriceBeforeDiscount   *decimal.Decimal `json:"priceBeforeDiscount,omitempty"`
	Source                StockSource      `json:"source"`
	EdgeID                *uuid.UUID       `json:"edgeId,omitempty"`
	FromCityID            *uuid.UUID       `json:"fromCityId,omitempty"`
	TransportationCost    *decimal.Decimal `json:"transportationCost,omitempty"`
	EstimatedDeliveryDays int              `json:"estimatedDeliveryDays"`
	EstimatedDeliveryDate string           `json:"estimatedDeliveryDate,omitempty"`
}

// CityOffers groups the offers of a product in one city
type CityOffers struct {
	CityID        uuid.UUID       `json:"cityId"`
	CityName      string          `json:"cityName"`
	TotalQuantity int             `json:"totalQuantity"`
	MinPrice      decimal.Decimal `json:"minPrice"`
	Offers        []StockOffer    `json:"offers"`
}

// CityStats is a city with aggregated availability
type CityStats struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Translations  Translations `json:"additionalData,omitempty"`
	TotalProducts int          `json:"totalProducts"`
	TotalQuantity int          `json:"totalQuantity"`
}

// PriceBounds is a min/max price pair
type PriceBounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type CityRequest struct {
	Name         string       `json:"name" binding:"required,max=255"`
	Translations Translations `json:"additionalData"`
}

type WarehouseRequest struct {
	Name       string    `json:"name" binding:"required,max=255"`
	ExternalID string    `json:"externalId"`
	CityID     uuid.UUID `json:"cityId" binding:"required"`
}

type StockRequest struct {
	WarehouseID uuid.UUID       `json:"warehouseId" binding:"required"`
	ProductID   uuid.UUID       `json:"productId" binding:"required"`
	Quantity    int             `json:"quantity" binding:"min=0"`
	Price       decimal.Decimal `json:"price"`
}

type EdgeRequest struct {
	CityFromID            uuid.UUID       `json:"cityFromId" binding:"required"`
	CityToID              uuid.UUID       `json:"cityToId" binding:"required"`
	CategoryID            *uuid.UUID      `json:"categoryId"`
	BrandID               *uuid.UUID      `json:"brandId"`
	TransportationCost    decimal.Decimal `json:"transportationCost"`
	EstimatedDeliveryDays int             `json:"estimatedDeliveryDays" binding:"min=0"`
	IsActive              *bool           `json:"isActive"`
	ExpirationDate        *time.Time      `json:"expirationDate"`
}
