package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BrandRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewBrandRepository(db *gorm.DB, cache *Cache) *BrandRepository {
	return &BrandRepository{db: db, cache: cache}
}

func (r *BrandRepository) invalidate(ctx context.Context) {
	r.cache.DeletePattern(ctx, "facets:*")
	r.cache.DeletePattern(ctx, "brands:*")
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "products:list:*")
}

func (r *BrandRepository) List(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

func (r *BrandRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBrandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	return &brand, nil
}

// FindOrCreateByName returns the brand named name (case-insensitive),
// creating it when missing. created reports whether a row was inserted.
func (r *BrandRepository) FindOrCreateByName(ctx context.Context, name string) (*models.Brand, bool, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&brand).Error
	if err == nil {
		return &brand, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to get brand: %w", err)
	}
	brand = models.Brand{Name: name}
	if err := r.Create(ctx, &brand); err != nil {
		return nil, false, err
	}
	return &brand, true, nil
}

// ByCategory lists the brands that have products in the subtree of c.
func (r *BrandRepository) ByCategory(ctx context.Context, c *models.Category) ([]models.Brand, error) {
	db := r.db.WithContext(ctx)
	var brands []models.Brand
	err := db.Where("id IN (?)",
		db.Model(&models.Product{}).Select("brand_id").
			Where("brand_id IS NOT NULL").
			Where("category_id IN (?)", subtreeProducts(db, c.Path)),
	).Order("name ASC").Find(&brands).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list brands by category: %w", err)
	}
	return brands, nil
}

func (r *BrandRepository) Create(ctx context.Context, b *models.Brand) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *BrandRepository) Update(ctx context.Context, b *models.Brand) error {
	res := r.db.WithContext(ctx).Model(&models.Brand{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"name":            b.Name,
		"logo":            b.Logo,
		"additional_data": b.Translations,
	})
	if res.Error != nil {
		if IsDuplicateError(res.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update brand: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBrandNotFound
	}
	r.invalidate(ctx)
	return nil
}

// Delete removes a brand and detaches its products.
func (r *BrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("brand_id = ?", id).Update("brand_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM discount_brands WHERE brand_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("brand_id = ?", id).Delete(&models.Edge{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Brand{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBrandNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
