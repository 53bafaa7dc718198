package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentRepository stores tags, product descriptions, blogs, category
// banners and add-on services.
type ContentRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewContentRepository(db *gorm.DB, cache *Cache) *ContentRepository {
	return &ContentRepository{db: db, cache: cache}
}

func (r *ContentRepository) invalidateProducts(ctx context.Context) {
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "products:list:*")
}

// Tags

func (r *ContentRepository) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("text ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *ContentRepository) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

func (r *ContentRepository) CreateTag(ctx context.Context, t *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *ContentRepository) UpdateTag(ctx context.Context, t *models.Tag) error {
	res := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"text":            t.Text,
		"font_color":      t.FontColor,
		"fill_color":      t.FillColor,
		"additional_data": t.Translations,
	})
	if res.Error != nil {
		if IsDuplicateError(res.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTagNotFound
	}
	r.invalidateProducts(ctx)
	return nil
}

func (r *ContentRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTagNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidateProducts(ctx)
	return nil
}

// Descriptions

func (r *ContentRepository) Descriptions(ctx context.Context, productID uuid.UUID) ([]models.ProductDescription, error) {
	var descriptions []models.ProductDescription
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC, created_at ASC").
		Find(&descriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list descriptions: %w", err)
	}
	return descriptions, nil
}

func (r *ContentRepository) GetDescription(ctx context.Context, id uuid.UUID) (*models.ProductDescription, error) {
	var d models.ProductDescription
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get description: %w", err)
	}
	return &d, nil
}

func (r *ContentRepository) SaveDescription(ctx context.Context, d *models.ProductDescription) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", d.ProductID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	if d.ID == uuid.Nil {
		if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
			return fmt.Errorf("failed to create description: %w", err)
		}
	} else {
		res := r.db.WithContext(ctx).Model(&models.ProductDescription{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
			"product_id":        d.ProductID,
			"title":             d.Title,
			"body":              d.Body,
			"additional_data":   d.Translations,
			"body_translations": d.BodyTranslations,
			"position":          d.Position,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update description: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDescriptionNotFound
		}
	}
	r.invalidateProducts(ctx)
	return nil
}

func (r *ContentRepository) DeleteDescription(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ProductDescription{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete description: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDescriptionNotFound
	}
	r.invalidateProducts(ctx)
	return nil
}

// Blogs

func (r *ContentRepository) Blogs(ctx context.Context, limit, offset int) ([]models.Blog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Blog{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count blogs: %w", err)
	}
	var blogs []models.Blog
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&blogs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list blogs: %w", err)
	}
	return blogs, total, nil
}

func (r *ContentRepository) GetBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	var b models.Blog
	err := r.db.WithContext(ctx).Preload("Products").Preload("Products.Tags").First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog: %w", err)
	}
	return &b, nil
}

// SaveBlog creates or updates a blog. A nil productIDs leaves the links untouched.
func (r *ContentRepository) SaveBlog(ctx context.Context, b *models.Blog, productIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.ID == uuid.Nil {
			if err := tx.Omit("Products").Create(b).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&models.Blog{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
				"title":             b.Title,
				"body":              b.Body,
				"additional_data":   b.Translations,
				"body_translations": b.BodyTranslations,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrBlogNotFound
			}
		}
		if productIDs == nil {
			return nil
		}
		return replaceJoin(tx, "blog_products", "blog_id", b.ID, "product_id", productIDs)
	})
	if err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			return err
		}
		return fmt.Errorf("failed to save blog: %w", err)
	}
	return nil
}

func (r *ContentRepository) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM blog_products WHERE blog_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Blog{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBlogNotFound
		}
		return nil
	})
}

// Banners

// CreateBanner attaches a banner image to a top-level category.
func (r *ContentRepository) CreateBanner(ctx context.Context, b *models.BannerImage) error {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "id = ?", b.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category.Level != 0 {
		return ErrBannerNotRoot
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}
	r.cache.Delete(ctx, categoriesAllKey)
	return nil
}

func (r *ContentRepository) Banners(ctx context.Context, categoryID uuid.UUID) ([]models.BannerImage, error) {
	var banners []models.BannerImage
	err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("position ASC").Find(&banners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

func (r *ContentRepository) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.BannerImage{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete banner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBannerNotFound
	}
	r.cache.Delete(ctx, categoriesAllKey)
	return nil
}

// Services

// Services lists add-on services; with cityID only those offered there.
func (r *ContentRepository) Services(ctx context.Context, cityID *uuid.UUID) ([]models.Service, error) {
	db := r.db.WithContext(ctx)
	q := db.Preload("Cities").Order("name ASC")
	if cityID != nil {
		q = q.Where("id IN (?)", db.Table("service_cities").Select("service_id").Where("city_id = ?", *cityID))
	}
	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// SaveService creates or updates a service. A nil cityIDs leaves the cities untouched.
func (r *ContentRepository) SaveService(ctx context.Context, s *models.Service, cityIDs []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.ID == uuid.Nil {
			if err := tx.Omit("Cities").Create(s).Error; err != nil {
				return err
			}
		} else {
			res := tx.Model(&models.Service{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
				"name":        s.Name,
				"description": s.Description,
				"price":       s.Price,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrServiceNotFound
			}
		}
		if cityIDs == nil {
			return nil
		}
		return replaceJoin(tx, "service_cities", "service_id", s.ID, "city_id", cityIDs)
	})
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return err
		}
		return fmt.Errorf("failed to save service: %w", err)
	}
	return nil
}

func (r *ContentRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM service_cities WHERE service_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Service{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrServiceNotFound
		}
		return nil
	})
}
