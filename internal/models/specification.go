package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpecificationName is a normalized characteristic name ("Color")
type SpecificationName struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string       `json:"name" gorm:"not null;uniqueIndex"`
	Translations Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (s *SpecificationName) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (SpecificationName) TableName() string {
	return "specification_names"
}

// SpecificationValue is a normalized characteristic value ("Red")
type SpecificationValue struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Value        string       `json:"value" gorm:"not null;uniqueIndex"`
	Translations Translations `json:"additionalData" gorm:"column:additional_data;type:jsonb"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (s *SpecificationValue) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (SpecificationValue) TableName() string {
	return "specification_values"
}

// Specification links a product to a name/value pair
type Specification struct {
	ID        uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID           `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_specifications_product_name_value"`
	NameID    uuid.UUID           `json:"nameId" gorm:"type:uuid;not null;index;uniqueIndex:idx_specifications_product_name_value"`
	Name      *SpecificationName  `json:"name,omitempty" gorm:"foreignKey:NameID"`
	ValueID   uuid.UUID           `json:"valueId" gorm:"type:uuid;not null;index;uniqueIndex:idx_specifications_product_name_value"`
	Value     *SpecificationValue `json:"value,omitempty" gorm:"foreignKey:ValueID"`
	CreatedAt time.Time           `json:"createdAt"`
}

func (s *Specification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (Specification) TableName() string {
	return "specifications"
}

// SpecPair is a raw name/value pair used by bulk updates and the import consumer
type SpecPair struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type SetSpecificationsRequest struct {
	Specs []SpecPair `json:"specs" binding:"dive"`
}

// SpecificationView is a translated product specification
type SpecificationView struct {
	NameID  uuid.UUID `json:"nameId"`
	Name    string    `json:"name"`
	ValueID uuid.UUID `json:"valueId"`
	Value   string    `json:"value"`
}

// SpecificationGroup is a distinct name with its values
type SpecificationGroup struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}
