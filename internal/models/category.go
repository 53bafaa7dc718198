package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node of the catalog tree.
// Path is the materialized list of ancestor IDs including the node itself, e.g. "/root/child/".
type Category struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string        `json:"name" gorm:"not null"`
	Slug         string        `json:"slug" gorm:"not null;uniqueIndex"`
	Description  *string       `json:"description,omitempty"`
	Translations Translations  `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	ParentID     *uuid.UUID    `json:"parentId,omitempty" gorm:"type:uuid;index"`
	Parent       *Category     `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Level        int           `json:"level" gorm:"not null;default:0"`
	Path         string        `json:"path" gorm:"not null;index"`
	Position     int           `json:"position" gorm:"not null;default:0"`
	Banners      []BannerImage `json:"banners,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// RootID returns the ID of the tree root the category belongs to.
func (c *Category) RootID() uuid.UUID {
	ids := c.AncestorIDs()
	if len(ids) == 0 {
		return c.ID
	}
	return ids[len(ids)-1]
}

// AncestorIDs returns the node and its ancestors, nearest first.
func (c *Category) AncestorIDs() []uuid.UUID {
	parts := strings.Split(strings.Trim(c.Path, "/"), "/")
	ids := make([]uuid.UUID, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		id, err := uuid.Parse(parts[i])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// TreeKey is the stable node key used by storefront tree widgets.
func (c *Category) TreeKey() string {
	return fmt.Sprintf("%d-%s-%s", c.Level, c.RootID(), c.ID)
}

// BuildPath computes the materialized path of a child of parent.
func BuildPath(parent *Category, id uuid.UUID) string {
	if parent == nil {
		return "/" + id.String() + "/"
	}
	return parent.Path + id.String() + "/"
}

// CreateCategoryRequest is the admin payload for new categories
type CreateCategoryRequest struct {
	Name         string       `json:"name" binding:"required,max=255"`
	Slug         string       `json:"slug" binding:"omitempty,slug"`
	Description  *string      `json:"description"`
	Translations Translations `json:"additionalData"`
	ParentID     *uuid.UUID   `json:"parentId"`
	Position     int          `json:"position"`
}

// UpdateCategoryRequest is the admin payload for category updates. A set
// ParentID moves the node; MoveToRoot detaches it.
type UpdateCategoryRequest struct {
	Name         *string      `json:"name" binding:"omitempty,max=255"`
	Slug         *string      `json:"slug" binding:"omitempty,slug"`
	Description  *string      `json:"description"`
	Translations Translations `json:"additionalData"`
	ParentID     *uuid.UUID   `json:"parentId"`
	MoveToRoot   bool         `json:"moveToRoot"`
	Position     *int         `json:"position"`
}

// CategoryNode is a translated tree node
type CategoryNode struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	Label    string          `json:"label"`
	Value    string          `json:"value"`
	Key      string          `json:"key"`
	Slug     string          `json:"slug"`
	Level    int             `json:"level"`
	Children []*CategoryNode `json:"children"`
}

// CategoryFacets aggregates the products of a category subtree
type CategoryFacets struct {
	CategoryID     uuid.UUID    `json:"categoryId"`
	TotalProducts  int64        `json:"totalProducts"`
	Brands         []BrandFacet `json:"brands"`
	Specifications []SpecFacet  `json:"specifications"`
	Price          *PriceBounds `json:"price,omitempty"`
	Children       []ChildFacet `json:"children"`
}

type BrandFacet struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int64     `json:"count"`
}

type SpecFacet struct {
	Name   string           `json:"name"`
	Values []SpecValueFacet `json:"values"`
}

type SpecValueFacet struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type ChildFacet struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Count int64     `json:"count"`
}

// SpecValueCount is one aggregated (name, value) row of a facet query
type SpecValueCount struct {
	Name  string
	Value string
	Count int64
}
