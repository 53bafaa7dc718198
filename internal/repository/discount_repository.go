package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscountRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewDiscountRepository(db *gorm.DB, cache *Cache) *DiscountRepository {
	return &DiscountRepository{db: db, cache: cache}
}

func (r *DiscountRepository) invalidate(ctx context.Context) {
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "products:list:*")
}

func (r *DiscountRepository) withScopes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Products").Preload("Categories").Preload("Brands")
}

// ListActive returns the discounts flagged active whose window contains now.
func (r *DiscountRepository) ListActive(ctx context.Context, now time.Time) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.withScopes(ctx).
		Where("active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Find(&discounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, nil
}

func (r *DiscountRepository) List(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	if err := r.withScopes(ctx).Order("created_at DESC").Find(&discounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, nil
}

func (r *DiscountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var d models.Discount
	err := r.withScopes(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	return &d, nil
}

// DiscountScope holds the targets of a discount. A nil slice leaves the relation untouched.
type DiscountScope struct {
	ProductIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
	BrandIDs    []uuid.UUID
}

func (r *DiscountRepository) Create(ctx context.Context, d *models.Discount, scope DiscountScope) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products", "Categories", "Brands").Create(d).Error; err != nil {
			return err
		}
		return replaceDiscountScope(tx, d, scope)
	})
	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *DiscountRepository) Update(ctx context.Context, d *models.Discount, scope DiscountScope) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Discount{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
			"name":        d.Name,
			"description": d.Description,
			"amount":      d.Amount,
			"active":      d.Active,
			"start_date":  d.StartDate,
			"end_date":    d.EndDate,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDiscountNotFound
		}
		return replaceDiscountScope(tx, d, scope)
	})
	if err != nil {
		if errors.Is(err, ErrDiscountNotFound) {
			return err
		}
		return fmt.Errorf("failed to update discount: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func replaceDiscountScope(tx *gorm.DB, d *models.Discount, scope DiscountScope) error {
	if scope.ProductIDs != nil {
		if err := replaceJoin(tx, "discount_products", "discount_id", d.ID, "product_id", scope.ProductIDs); err != nil {
			return err
		}
	}
	if scope.CategoryIDs != nil {
		if err := replaceJoin(tx, "discount_categories", "discount_id", d.ID, "category_id", scope.CategoryIDs); err != nil {
			return err
		}
	}
	if scope.BrandIDs != nil {
		if err := replaceJoin(tx, "discount_brands", "discount_id", d.ID, "brand_id", scope.BrandIDs); err != nil {
			return err
		}
	}
	return nil
}

func (r *DiscountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM discount_products WHERE discount_id = ?",
			"DELETE FROM discount_categories WHERE discount_id = ?",
			"DELETE FROM discount_brands WHERE discount_id = ?",
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Discount{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDiscountNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// DeactivateExpired switches off active discounts whose end date has passed
// and returns how many were changed.
func (r *DiscountRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Discount{}).
		Where("active = ?", true).
		Where("end_date IS NOT NULL AND end_date < ?", now).
		Update("active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate discounts: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.invalidate(ctx)
	}
	return res.RowsAffected, nil
}
