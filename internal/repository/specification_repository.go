package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SpecificationRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewSpecificationRepository(db *gorm.DB, cache *Cache) *SpecificationRepository {
	return &SpecificationRepository{db: db, cache: cache}
}

// ForProduct returns the specifications of a product with names and values.
func (r *SpecificationRepository) ForProduct(ctx context.Context, productID uuid.UUID) ([]models.Specification, error) {
	var specs []models.Specification
	err := r.db.WithContext(ctx).
		Preload("Name").
		Preload("Value").
		Joins("JOIN specification_names ON specification_names.id = specifications.name_id").
		Where("specifications.product_id = ?", productID).
		Order("specification_names.name ASC").
		Find(&specs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}
	return specs, nil
}

// ForProducts groups the specifications of several products by product.
func (r *SpecificationRepository) ForProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.Specification, error) {
	result := make(map[uuid.UUID][]models.Specification, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var specs []models.Specification
	err := r.db.WithContext(ctx).
		Preload("Name").
		Preload("Value").
		Where("product_id IN ?", ids).
		Find(&specs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}
	for _, s := range specs {
		result[s.ProductID] = append(result[s.ProductID], s)
	}
	return result, nil
}

// Distinct aggregates name/value pairs over a category subtree and/or an explicit product set.
func (r *SpecificationRepository) Distinct(ctx context.Context, categoryPath string, productIDs []uuid.UUID) ([]models.SpecValueCount, error) {
	db := r.db.WithContext(ctx)
	q := db.Table("specifications").
		Select("specification_names.name AS name, specification_values.value AS value, COUNT(DISTINCT specifications.product_id) AS count").
		Joins("JOIN specification_names ON specification_names.id = specifications.name_id").
		Joins("JOIN specification_values ON specification_values.id = specifications.value_id")
	if categoryPath != "" {
		q = q.Joins("JOIN products ON products.id = specifications.product_id").
			Where("products.category_id IN (?)", subtreeProducts(db, categoryPath))
	}
	if len(productIDs) > 0 {
		q = q.Where("specifications.product_id IN ?", productIDs)
	}
	var rows []models.SpecValueCount
	if err := q.Group("specification_names.name, specification_values.value").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate specifications: %w", err)
	}
	return rows, nil
}

// Replace sets the specifications of a product to pairs, creating unknown
// names and values. It returns the names and values created so their
// translations can be requested.
func (r *SpecificationRepository) Replace(ctx context.Context, productID uuid.UUID, pairs []models.SpecPair) ([]models.Translatable, error) {
	var created []models.Translatable
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.Specification{}).Error; err != nil {
			return err
		}
		seen := make(map[[2]uuid.UUID]bool)
		for _, pair := range pairs {
			nameText := strings.TrimSpace(pair.Name)
			valueText := strings.TrimSpace(pair.Value)
			if nameText == "" || valueText == "" {
				continue
			}
			name, isNewName, err := getOrCreateName(tx, nameText)
			if err != nil {
				return err
			}
			if isNewName {
				created = append(created, name)
			}
			value, isNewValue, err := getOrCreateValue(tx, valueText)
			if err != nil {
				return err
			}
			if isNewValue {
				created = append(created, value)
			}
			key := [2]uuid.UUID{name.ID, value.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			spec := models.Specification{ProductID: productID, NameID: name.ID, ValueID: value.ID}
			if err := tx.Omit("Name", "Value").Create(&spec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace specifications: %w", err)
	}
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "facets:*")
	return created, nil
}

func getOrCreateName(tx *gorm.DB, text string) (*models.SpecificationName, bool, error) {
	var name models.SpecificationName
	err := tx.Where("name = ?", text).First(&name).Error
	if err == nil {
		return &name, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	name = models.SpecificationName{Name: text}
	if err := tx.Create(&name).Error; err != nil {
		return nil, false, err
	}
	return &name, true, nil
}

func getOrCreateValue(tx *gorm.DB, text string) (*models.SpecificationValue, bool, error) {
	var value models.SpecificationValue
	err := tx.Where("value = ?", text).First(&value).Error
	if err == nil {
		return &value, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	value = models.SpecificationValue{Value: text}
	if err := tx.Create(&value).Error; err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

// CopyFrom replaces the specifications of productID with those of baseID.
func (r *SpecificationRepository) CopyFrom(ctx context.Context, productID, baseID uuid.UUID) error {
	specs, err := r.ForProduct(ctx, baseID)
	if err != nil {
		return err
	}
	pairs := make([]models.SpecPair, 0, len(specs))
	for _, s := range specs {
		if s.Name == nil || s.Value == nil {
			continue
		}
		pairs = append(pairs, models.SpecPair{Name: s.Name.Name, Value: s.Value.Value})
	}
	_, err = r.Replace(ctx, productID, pairs)
	return err
}
